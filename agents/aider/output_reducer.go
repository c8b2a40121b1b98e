package aider

import "strings"

// Fixed user-facing strings. When the repository fingerprint proves a
// mutation, the agent's own narration adds nothing and a fixed confirmation
// is returned instead; when nothing useful survives filtering, the caller
// still receives a friendly non-empty reply.
const (
	ChangesAppliedMessage = "✅ Changes applied successfully! Your requested changes have been applied to the site."
	FallbackGreeting      = "Hello! How can I help you with your landing page today?"
	TruncationMarker      = "... [truncated]"
)

// preamblePrefixes marks the banner and status lines aider prints before the
// conversational content.
var preamblePrefixes = []string{
	"─",
	"Aider v",
	"Main model:",
	"Weak model:",
	"Editor model:",
	"Git repo:",
	"Repo-map:",
}

// Reduce turns raw agent output into the bounded, user-presentable reply.
// When the invocation provably changed files, the reply is the fixed
// confirmation. Otherwise the known preamble lines are stripped, everything
// from the first token-accounting line on is dropped, and the remainder is
// truncated to maxLength. The result is never empty.
func Reduce(rawOutput string, fileChanged bool, maxLength int) string {
	if fileChanged {
		return ChangesAppliedMessage
	}

	response := filterPreamble(rawOutput)
	if response == "" {
		return FallbackGreeting
	}

	return TruncateOutput(response, maxLength)
}

// TruncateOutput hard-cuts output that exceeds maxLength and appends the
// truncation marker. Shorter output passes through untouched.
func TruncateOutput(output string, maxLength int) string {
	if maxLength <= 0 || len(output) <= maxLength {
		return output
	}
	return output[:maxLength] + TruncationMarker
}

// filterPreamble strips blank lines, "Added ... to the chat." notices and the
// banner prefixes, keeping conversational content up to the first "Tokens:"
// accounting line.
func filterPreamble(rawOutput string) string {
	var responseLines []string

	for _, line := range strings.Split(rawOutput, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "Added ") && strings.HasSuffix(trimmed, " to the chat.") {
			continue
		}
		if hasPreamblePrefix(trimmed) {
			continue
		}
		if strings.HasPrefix(trimmed, "Tokens:") {
			break
		}
		responseLines = append(responseLines, trimmed)
	}

	return strings.TrimSpace(strings.Join(responseLines, "\n"))
}

func hasPreamblePrefix(line string) bool {
	for _, prefix := range preamblePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
