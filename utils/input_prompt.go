package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sitewright/sitewright/constants/lipgloss"
)

// ConfirmPrompt asks a yes/no question on the terminal and reports the
// answer. Anything other than "y" or "yes" declines, including end of input.
func ConfirmPrompt(question string, reader *bufio.Reader) (bool, error) {
	fmt.Print(lipgloss.BlueSky.Render(question + " (y/N): "))

	answer, err := reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("error reading input: %w", err)
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
