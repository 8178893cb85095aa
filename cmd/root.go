package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warden-ai/warden/internal/config"
	"github.com/warden-ai/warden/internal/provider"
	"github.com/warden-ai/warden/internal/trust"
)

var (
	cfgFile      string
	trustAll     bool
	modelFlag    string
	providerFlag string
	maxTurnsFlag int

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:   "warden",
		Short: "AI coding agent with a trust gate on every tool call",
		Long: "warden is an interactive AI coding agent. Shell commands and bridged MCP tools\n" +
			"pass through a confirmation gate before anything runs.",
		// Running warden with no subcommand starts chat mode.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/warden/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&trustAll, "trust-all", false, "disable the trust gate: run every tool without confirmation")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "override model")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "override provider")
	rootCmd.PersistentFlags().IntVar(&maxTurnsFlag, "max-turns", 0, "max agent loop iterations (0=unlimited)")

	// Subcommands
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config values
	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if trustAll {
		cfg.Trust.Mode = "trusted"
	}
	if maxTurnsFlag > 0 {
		cfg.MaxIterations = maxTurnsFlag
	}

	return cfg
}

// buildProvider creates a Provider instance based on configuration.
func buildProvider(cfg *config.Config) (provider.Provider, error) {
	name := cfg.Provider
	pc := cfg.GetProviderConfig(name)

	apiKey := pc.APIKey
	if apiKey == "" {
		return nil, fmt.Errorf(
			"API key not configured for provider %q.\n"+
				"Set it via:\n"+
				"  - config file: providers.%s.api_key\n"+
				"  - environment: LLM_API_KEY, ANTHROPIC_API_KEY, or OPENAI_API_KEY",
			name, name,
		)
	}

	// Determine model: CLI flag / global config > per-provider config
	model := cfg.Model
	if model == "" {
		model = pc.Model
	}

	switch name {
	case "anthropic":
		return provider.NewAnthropicProvider(apiKey, pc.BaseURL, model), nil
	default:
		// All other providers use an OpenAI-compatible API
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = config.KnownProviderBaseURL(name)
		}
		if baseURL == "" && name != "openai" {
			return nil, fmt.Errorf("unknown provider %q; set providers.%s.base_url in config", name, name)
		}
		return provider.NewOpenAIProvider(apiKey, baseURL, model), nil
	}
}

// seedTrustStore builds the session allowlist pre-populated from config.
// Command entries are reduced to their roots, so "git status" trusts "git".
func seedTrustStore(cfg *config.Config) *trust.Store {
	store := trust.NewStore()
	for _, cmd := range cfg.Trust.AllowedCommands {
		store.Allow(trust.KindShell, trust.CommandRoot(cmd))
	}
	for _, server := range cfg.Trust.AllowedServers {
		store.Allow(trust.KindBridged, server)
	}
	for _, tool := range cfg.Trust.AllowedTools {
		store.Allow(trust.KindBridged, tool)
	}
	return store
}
