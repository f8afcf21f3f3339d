// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/hasura/promptql-go-sdk/cli/config"
)

var (
	// Global flags
	cfgFile      string
	ddnURL       string
	llmProvider  string
	buildID      string
	buildVersion string
	timezone     string
	baseURL      string
	jsonOutput   bool
	verbose      bool

	// Loaded configuration
	cfg *config.Config
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "promptql",
	Short: "PromptQL - query Hasura DDN projects in natural language",
	Long: `PromptQL is a command-line interface for the PromptQL Natural Language API.

Use it to manage API keys, run one-shot queries, and hold interactive
conversations against a Hasura DDN project.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.promptql/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&ddnURL, "ddn-url", "", "DDN SQL endpoint URL (v1 mode, requires --llm-provider)")
	rootCmd.PersistentFlags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for v1 mode (hasura, anthropic, openai)")
	rootCmd.PersistentFlags().StringVar(&buildID, "build-id", "", "DDN build ID (v2 mode)")
	rootCmd.PersistentFlags().StringVar(&buildVersion, "build-version", "", "DDN build version (v2 mode)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "", "IANA timezone for queries (default UTC)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "PromptQL API base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

// initConfig reads in config file and applies defaults for unset flags.
func initConfig() error {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	var err error
	cfg, err = config.LoadConfig(path)
	if err != nil {
		return err
	}

	if ddnURL == "" {
		ddnURL = cfg.DDNURL
	}
	if llmProvider == "" {
		llmProvider = cfg.LLMProvider
	}
	if buildID == "" {
		buildID = cfg.BuildID
	}
	if buildVersion == "" {
		buildVersion = cfg.BuildVersion
	}
	if timezone == "" {
		timezone = cfg.Timezone
	}
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}

	return nil
}

// IsJSONOutput returns true if JSON output is enabled.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsVerbose returns true if verbose output is enabled.
func IsVerbose() bool {
	return verbose
}
