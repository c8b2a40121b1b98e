package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sitewright/sitewright/token_management"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletionRequest_StreamsWithoutDuplicates(t *testing.T) {
	tokenManager := token_management.NewTokenManager()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)

		fmt.Fprint(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"Hello\\n\"},\"done\":false}\n")
		fmt.Fprint(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"world\"},\"done\":false}\n")
		fmt.Fprint(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"\"},\"done\":true,\"prompt_eval_count\":5,\"eval_count\":3}\n")
	}))
	defer server.Close()

	provider := NewOllamaChatProvider(&OllamaConfig{
		BaseURL:         server.URL,
		Model:           "llama3",
		TokenManagement: tokenManager,
	})

	var chunks []string
	var done bool
	for chunk := range provider.ChatCompletionRequest(context.Background(), "hi", "prompt") {
		require.NoError(t, chunk.Err)
		if chunk.Done {
			done = true
			continue
		}
		chunks = append(chunks, chunk.Content)
	}

	// The trailing buffer is flushed exactly once, ahead of the done marker.
	assert.Equal(t, []string{"Hello\n", "world"}, chunks)
	assert.True(t, done)

	total, input, output := tokenManager.GetCurrentTokenUsage()
	assert.Equal(t, 8, total)
	assert.Equal(t, 5, input)
	assert.Equal(t, 3, output)
}

func TestNewOllamaChatProvider_DefaultBaseURL(t *testing.T) {
	provider := NewOllamaChatProvider(&OllamaConfig{Model: "llama3"})

	config, ok := provider.(*OllamaConfig)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434/api", config.BaseURL)
}
