package contracts

import (
	"context"

	"github.com/sitewright/sitewright/providers/models"
)

// IChatAIProvider defines the interface for AI chat providers.
type IChatAIProvider interface {
	ChatCompletionRequest(ctx context.Context, userInput string, prompt string) <-chan models.StreamResponse
}
