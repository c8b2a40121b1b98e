package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sitewright/sitewright/agents"
	"github.com/sitewright/sitewright/constants/lipgloss"
	"github.com/sitewright/sitewright/providers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCacheEntry holds cached configuration with metadata
type configCacheEntry struct {
	config  *Config
	modTime time.Time
}

// Global cache for configuration files
var (
	configCache = make(map[string]*configCacheEntry)
	cacheMutex  sync.RWMutex
)

// Config represents the structure of the configuration file
type Config struct {
	Version          string                      `mapstructure:"version"`
	Theme            string                      `mapstructure:"theme"`
	FileDisplayMode  string                      `mapstructure:"file_display_mode"`
	EnableCache      bool                        `mapstructure:"enable_cache"`
	MaxOutputLength  int                         `mapstructure:"max_output_length"`
	Agent            *agents.AgentConfig         `mapstructure:"agent"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:         "1.0.0",
	Theme:           "dracula",
	FileDisplayMode: "full",
	EnableCache:     true,
	MaxOutputLength: 3000,
	Agent: &agents.AgentConfig{
		Command:               "aider",
		Model:                 "gpt-5",
		WeakModel:             "",
		EditorModel:           "",
		CachePrompts:          true,
		CacheKeepAliveSeconds: 300,
		TimeoutSeconds:        300,
	},
	AIProviderConfig: &providers.AIProviderConfig{
		Provider: "openai",
		// BaseURL stays empty so each provider fills in its own endpoint.
		BaseURL:     "",
		Model:       "gpt-4o",
		Stream:      true,
		Temperature: nil,
		ApiKey:      "",
	},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	// Load a .env file if present so its variables are visible below.
	_ = godotenv.Load()

	// Set default values using Viper
	setDefaults()

	// Automatically read environment variables
	viper.AutomaticEnv()

	// Explicitly bind environment variables to config keys
	bindEnv()

	// Check if the user provided a config file
	if cfgFile != "" {
		// Use the config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Look for configuration files in the current directory
		viper.SetConfigName("sitewright-config") // Name of config file (without extension)
		viper.AddConfigPath(cwd)                 // Look in the current working directory

		// Support both JSON and YAML formats
		viper.SetConfigType("yaml") // Set default type
		if err := viper.ReadInConfig(); err != nil {
			// If YAML fails, try JSON
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				// If both fail, we'll continue with defaults. The notice
				// goes to stderr: stdout is reserved for command results.
				fmt.Fprintln(os.Stderr, lipgloss.Yellow.Render("No configuration file found, using defaults"))
			}
		}
	}

	// Read the explicitly specified config file (if any)
	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	// Unmarshal the configuration into the Config struct
	if err := viper.Unmarshal(&config); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("file_display_mode", DefaultConfig.FileDisplayMode)
	viper.SetDefault("enable_cache", DefaultConfig.EnableCache)
	viper.SetDefault("max_output_length", DefaultConfig.MaxOutputLength)
	viper.SetDefault("agent.command", DefaultConfig.Agent.Command)
	viper.SetDefault("agent.model", DefaultConfig.Agent.Model)
	viper.SetDefault("agent.weak_model", DefaultConfig.Agent.WeakModel)
	viper.SetDefault("agent.editor_model", DefaultConfig.Agent.EditorModel)
	viper.SetDefault("agent.cache_prompts", DefaultConfig.Agent.CachePrompts)
	viper.SetDefault("agent.cache_keep_alive_seconds", DefaultConfig.Agent.CacheKeepAliveSeconds)
	viper.SetDefault("agent.timeout_seconds", DefaultConfig.Agent.TimeoutSeconds)
	viper.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	viper.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	viper.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	viper.SetDefault("ai_provider_config.temperature", DefaultConfig.AIProviderConfig.Temperature)
	viper.SetDefault("ai_provider_config.max_tokens", DefaultConfig.AIProviderConfig.MaxTokens)
	viper.SetDefault("ai_provider_config.stream", DefaultConfig.AIProviderConfig.Stream)
	viper.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.ApiKey)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("file_display_mode", "FILE_DISPLAY_MODE")
	_ = viper.BindEnv("enable_cache", "ENABLE_CACHE")
	_ = viper.BindEnv("max_output_length", "MAX_OUTPUT_LENGTH")
	_ = viper.BindEnv("agent.command", "AGENT_COMMAND")
	_ = viper.BindEnv("agent.model", "AGENT_MODEL")
	_ = viper.BindEnv("agent.weak_model", "AGENT_WEAK_MODEL")
	_ = viper.BindEnv("agent.editor_model", "AGENT_EDITOR_MODEL")
	_ = viper.BindEnv("agent.cache_prompts", "CACHE_PROMPTS")
	_ = viper.BindEnv("agent.cache_keep_alive_seconds", "CACHE_KEEP_ALIVE_SECONDS")
	_ = viper.BindEnv("agent.timeout_seconds", "AGENT_TIMEOUT_SECONDS")
	_ = viper.BindEnv("ai_provider_config.provider", "PROVIDER")
	_ = viper.BindEnv("ai_provider_config.base_url", "BASE_URL")
	_ = viper.BindEnv("ai_provider_config.model", "CHAT_MODEL")
	_ = viper.BindEnv("ai_provider_config.temperature", "TEMPERATURE")
	_ = viper.BindEnv("ai_provider_config.max_tokens", "MAX_TOKENS")
	_ = viper.BindEnv("ai_provider_config.api_key", "OPENAI_API_KEY", "API_KEY")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("file_display_mode", rootCmd.PersistentFlags().Lookup("file_display_mode"))
	_ = viper.BindPFlag("enable_cache", rootCmd.PersistentFlags().Lookup("enable_cache"))
	_ = viper.BindPFlag("max_output_length", rootCmd.PersistentFlags().Lookup("max_output_length"))
	_ = viper.BindPFlag("agent.command", rootCmd.PersistentFlags().Lookup("agent_command"))
	_ = viper.BindPFlag("agent.model", rootCmd.PersistentFlags().Lookup("agent_model"))
	_ = viper.BindPFlag("agent.weak_model", rootCmd.PersistentFlags().Lookup("agent_weak_model"))
	_ = viper.BindPFlag("agent.editor_model", rootCmd.PersistentFlags().Lookup("agent_editor_model"))
	_ = viper.BindPFlag("agent.cache_prompts", rootCmd.PersistentFlags().Lookup("cache_prompts"))
	_ = viper.BindPFlag("agent.cache_keep_alive_seconds", rootCmd.PersistentFlags().Lookup("cache_keep_alive_seconds"))
	_ = viper.BindPFlag("agent.timeout_seconds", rootCmd.PersistentFlags().Lookup("agent_timeout_seconds"))
	_ = viper.BindPFlag("ai_provider_config.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("ai_provider_config.base_url", rootCmd.PersistentFlags().Lookup("base_url"))
	_ = viper.BindPFlag("ai_provider_config.model", rootCmd.PersistentFlags().Lookup("chat_model"))
	_ = viper.BindPFlag("ai_provider_config.temperature", rootCmd.PersistentFlags().Lookup("temperature"))
	_ = viper.BindPFlag("ai_provider_config.max_tokens", rootCmd.PersistentFlags().Lookup("max_tokens"))
	_ = viper.BindPFlag("ai_provider_config.api_key", rootCmd.PersistentFlags().Lookup("api_key"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	// Theme configuration
	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set customize theme for buffering response from ai. (e.g., 'dracula', 'light', 'dark')")

	// File display mode configuration
	rootCmd.PersistentFlags().String("file_display_mode", DefaultConfig.FileDisplayMode, "Set file display mode: 'info' (file info only), 'summary' (structural outline), 'full' (complete file content)")

	// Cache configuration
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Enable or disable file caching for improved performance")

	// Output configuration
	rootCmd.PersistentFlags().Int("max_output_length", DefaultConfig.MaxOutputLength, "Maximum length of the user-facing output before truncation")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	// Coding agent configuration
	rootCmd.PersistentFlags().String("agent_command", DefaultConfig.Agent.Command, "The executable used as the coding agent.")
	rootCmd.PersistentFlags().String("agent_model", DefaultConfig.Agent.Model, "The model the coding agent uses for edits, such as 'gpt-5'.")
	rootCmd.PersistentFlags().String("agent_weak_model", DefaultConfig.Agent.WeakModel, "The cheaper model the coding agent uses for auxiliary tasks.")
	rootCmd.PersistentFlags().String("agent_editor_model", DefaultConfig.Agent.EditorModel, "The model the coding agent uses for applying edits.")
	rootCmd.PersistentFlags().Bool("cache_prompts", DefaultConfig.Agent.CachePrompts, "Enable provider-side prompt caching for the coding agent.")
	rootCmd.PersistentFlags().Int("cache_keep_alive_seconds", DefaultConfig.Agent.CacheKeepAliveSeconds, "How long to keep the provider-side prompt cache warm, in seconds.")
	rootCmd.PersistentFlags().Int("agent_timeout_seconds", DefaultConfig.Agent.TimeoutSeconds, "Wall-clock limit for one coding agent run, in seconds.")

	// AI Provider configuration
	rootCmd.PersistentFlags().String("provider", DefaultConfig.AIProviderConfig.Provider, "The name of the AI provider (e.g., 'openai', 'ollama')")
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "The base URL of the AI provider. Empty selects the provider's own default (e.g., 'https://api.openai.com/v1' for openai).")
	rootCmd.PersistentFlags().String("chat_model", DefaultConfig.AIProviderConfig.Model, "The name of the model used for chat completions, such as 'gpt-4o'.")
	rootCmd.PersistentFlags().Float32("temperature", 0, "Adjusts the AI model's creativity (0-1, default 0.2).")
	rootCmd.PersistentFlags().Int("max_tokens", DefaultConfig.AIProviderConfig.MaxTokens, "Caps the length of chat completions (0 means provider default).")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.AIProviderConfig.ApiKey, "The API key used to authenticate with the AI service provider.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}

// LoadConfigWithCache loads configuration with caching support
func LoadConfigWithCache(rootCmd *cobra.Command, cwd string) *Config {
	var configFilePath string

	// Determine config file path
	if cfgFile != "" {
		configFilePath = cfgFile
	} else {
		// Check for default config files
		yamlPath := fmt.Sprintf("%s/sitewright-config.yaml", cwd)
		ymlPath := fmt.Sprintf("%s/sitewright-config.yml", cwd)
		jsonPath := fmt.Sprintf("%s/sitewright-config.json", cwd)

		if _, err := os.Stat(yamlPath); err == nil {
			configFilePath = yamlPath
		} else if _, err := os.Stat(ymlPath); err == nil {
			configFilePath = ymlPath
		} else if _, err := os.Stat(jsonPath); err == nil {
			configFilePath = jsonPath
		}
	}

	// If no config file exists, return default configuration loading
	if configFilePath == "" {
		return LoadConfigs(rootCmd, cwd)
	}

	// Check file modification time
	fileInfo, err := os.Stat(configFilePath)
	if err != nil {
		// File doesn't exist or error, fallback to regular loading
		return LoadConfigs(rootCmd, cwd)
	}

	// Check cache first
	cacheMutex.RLock()
	if cached, exists := configCache[configFilePath]; exists {
		// Check if file has been modified since cache
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.config
		}
	}
	cacheMutex.RUnlock()

	// Load configuration normally
	config := LoadConfigs(rootCmd, cwd)

	// Update cache
	cacheMutex.Lock()
	configCache[configFilePath] = &configCacheEntry{
		config:  config,
		modTime: fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return config
}

// ClearConfigCache clears all cached configuration files
func ClearConfigCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	configCache = make(map[string]*configCacheEntry)
}

// GetConfigCacheStats returns statistics about the configuration cache
func GetConfigCacheStats() map[string]interface{} {
	cacheMutex.RLock()
	defer cacheMutex.RUnlock()

	stats := make(map[string]interface{})
	stats["cached_files"] = len(configCache)
	stats["cache_entries"] = make([]string, 0, len(configCache))

	for path := range configCache {
		stats["cache_entries"] = append(stats["cache_entries"].([]string), path)
	}

	return stats
}

// InvalidateConfigCache removes a specific config file from cache
func InvalidateConfigCache(configPath string) {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	delete(configCache, configPath)
}
