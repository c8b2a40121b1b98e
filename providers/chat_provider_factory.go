package providers

import (
	"fmt"

	"github.com/sitewright/sitewright/providers/contracts"
	"github.com/sitewright/sitewright/providers/ollama"
	"github.com/sitewright/sitewright/providers/openai"
	token_contracts "github.com/sitewright/sitewright/token_management/contracts"
)

// ChatProviderFactory creates the chat provider the configuration names.
// OpenAI is the default when no provider is configured.
func ChatProviderFactory(config *AIProviderConfig, tokenManagement token_contracts.ITokenManagement) (contracts.IChatAIProvider, error) {
	switch config.Provider {
	case "openai", "":
		return openai.NewOpenAIChatProvider(&openai.OpenAIConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			ApiKey:          config.ApiKey,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			TokenManagement: tokenManagement,
		}), nil
	case "ollama":
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			TokenManagement: tokenManagement,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}
