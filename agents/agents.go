package agents

import (
	"time"

	"github.com/sitewright/sitewright/agents/aider"
	"github.com/sitewright/sitewright/agents/contracts"
)

// AgentConfig holds the settings for the external coding agent process.
type AgentConfig struct {
	Command               string `mapstructure:"command"`
	Model                 string `mapstructure:"model"`
	WeakModel             string `mapstructure:"weak_model"`
	EditorModel           string `mapstructure:"editor_model"`
	CachePrompts          bool   `mapstructure:"cache_prompts"`
	CacheKeepAliveSeconds int    `mapstructure:"cache_keep_alive_seconds"`
	TimeoutSeconds        int    `mapstructure:"timeout_seconds"`
}

// NewCodingAgent builds the coding agent adapter for the configured command.
// The API key is handed to the child process environment so the agent can
// reach its provider.
func NewCodingAgent(config *AgentConfig, apiKey string) contracts.ICodingAgent {
	return aider.NewAiderAgent(&aider.AiderConfig{
		Command: config.Command,
		Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		ApiKey:  apiKey,
	})
}
