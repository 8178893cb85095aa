// Package config loads and manages warden configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (LLM_API_KEY, LLM_BASE_URL, LLM_MODEL, ANTHROPIC_API_KEY, etc.)
// 2. Config file path specified via --config flag
// 3. ~/.config/warden/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// knownProviderBaseURLs maps well-known OpenAI-compatible provider names
// to their base URLs. The "anthropic" and "openai" providers use the SDK
// defaults and need no entry.
var knownProviderBaseURLs = map[string]string{
	"deepseek": "https://api.deepseek.com/v1",
	"kimi":     "https://api.moonshot.cn/v1",
	"qwen":     "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"groq":     "https://api.groq.com/openai/v1",
}

// KnownProviderBaseURL returns the default base URL for a well-known
// provider name, or "" if the provider needs an explicit base_url.
func KnownProviderBaseURL(name string) string {
	return knownProviderBaseURLs[name]
}

// ProviderConfig holds configuration for a single provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// TrustConfig holds the trust gate settings.
type TrustConfig struct {
	// Mode: "interactive" (default, confirm gated tools) | "trusted" (never ask)
	Mode string `yaml:"mode"`

	// AllowedCommands pre-trusts shell commands for the whole session.
	// Each entry is reduced to its command root, so "git status" trusts "git".
	AllowedCommands []string `yaml:"allowed_commands"`

	// AllowedServers pre-trusts every tool on the named MCP servers.
	AllowedServers []string `yaml:"allowed_servers"`

	// AllowedTools pre-trusts individual MCP tools, written "server.tool".
	AllowedTools []string `yaml:"allowed_tools"`
}

// Config is the complete configuration structure for warden.
type Config struct {
	// Provider is the active provider name (e.g. "anthropic", "openai", "deepseek")
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// Providers holds per-provider configuration.
	Providers map[string]*ProviderConfig `yaml:"providers"`

	// Trust holds the trust gate settings.
	Trust TrustConfig `yaml:"trust"`

	// SystemPrompt is a custom system prompt (empty uses default).
	SystemPrompt string `yaml:"system_prompt"`

	// MaxIterations is the max number of agent loop iterations.
	// 0 = unlimited (default). Loop exits when model stops calling tools.
	MaxIterations int `yaml:"max_iterations"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:      "anthropic",
		MaxIterations: 0,
		Providers:     make(map[string]*ProviderConfig),
		Trust: TrustConfig{
			Mode: "interactive",
		},
	}
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Determine config file path
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".config", "warden", "config.yaml")
		}
	}

	// Read config file (use defaults if not found)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Initialize providers map
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}
	if cfg.Trust.Mode == "" {
		cfg.Trust.Mode = "interactive"
	}

	return cfg, nil
}

// GetProviderConfig returns the config for the named provider, or an empty config if not found.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc, ok := c.Providers[name]; ok {
		return pc
	}
	return &ProviderConfig{}
}

// Trusted reports whether the trust gate is disabled entirely.
func (c *Config) Trusted() bool {
	return c.Trust.Mode == "trusted"
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Generic overrides
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		provider := cfg.Provider
		if cfg.Providers[provider] == nil {
			cfg.Providers[provider] = &ProviderConfig{}
		}
		cfg.Providers[provider].APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		provider := cfg.Provider
		if cfg.Providers[provider] == nil {
			cfg.Providers[provider] = &ProviderConfig{}
		}
		cfg.Providers[provider].BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Model = v
	}

	// Provider-specific keys
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		if cfg.Providers["anthropic"] == nil {
			cfg.Providers["anthropic"] = &ProviderConfig{}
		}
		if cfg.Providers["anthropic"].APIKey == "" {
			cfg.Providers["anthropic"].APIKey = v
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.Providers["openai"] == nil {
			cfg.Providers["openai"] = &ProviderConfig{}
		}
		if cfg.Providers["openai"].APIKey == "" {
			cfg.Providers["openai"].APIKey = v
		}
	}

	// Provider selection
	if v := os.Getenv("WARDEN_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("WARDEN_MODEL"); v != "" {
		cfg.Model = v
	}
}
