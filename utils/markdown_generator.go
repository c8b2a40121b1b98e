package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

var isCodeBlock = false

// RenderAndPrintMarkdownWithContext renders streamed markdown content to the
// terminal with syntax highlighting and cancellation support. Inside fenced
// code blocks, added and removed lines are colored directly.
func RenderAndPrintMarkdownWithContext(ctx context.Context, content string, language string, theme string) error {
	lines := strings.Split(content, "\n")

	for _, line := range lines {
		select {
		case <-ctx.Done():
			fmt.Printf("\n\nOutput interrupted...\n")
			return ctx.Err()
		default:
		}

		if strings.HasPrefix(line, "```") {
			isCodeBlock = !isCodeBlock
		}

		if strings.HasPrefix(line, "+") && isCodeBlock {
			fmt.Print("\x1b[92m" + line + "\x1b[0m\n")
		} else if strings.HasPrefix(line, "-") && isCodeBlock {
			fmt.Print("\x1b[91m" + line + "\x1b[0m\n")
		} else {
			var buf bytes.Buffer
			if err := quick.Highlight(&buf, line+"\n", language, "terminal256", theme); err != nil {
				return err
			}
			fmt.Print(buf.String())
		}
	}

	return nil
}

// DetectLanguageFromCodeBlock inspects a streamed chunk for a fenced code
// block opener and returns the declared language, defaulting to markdown.
func DetectLanguageFromCodeBlock(content string) string {
	idx := strings.Index(content, "```")
	if idx == -1 {
		return "markdown"
	}

	rest := content[idx+3:]
	if end := strings.IndexAny(rest, "\n \t"); end != -1 {
		rest = rest[:end]
	}

	language := strings.TrimSpace(rest)
	if language == "" {
		return "markdown"
	}
	return language
}
