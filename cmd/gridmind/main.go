// Package main implements the gridmind CLI, a multi-agent assistant for
// questions about Brazilian electric sector regulation (ANEEL resolutions,
// PRODIST modules, technical standards).
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gridmind/gridmind/config"
)

var (
	// Global flags
	cfgFile  string
	dataDir  string
	provider string
	logLevel string
	userID   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gridmind",
	Short: "gridmind - multi-agent assistant for electric sector regulation",
	Long: `gridmind answers questions about Brazilian electric sector regulation by
coordinating specialist agents over a local document index.

A coordinator routes each question to a data scientist and/or an electric
engineer, a read-only reviewer checks the aggregated answer, and the final
response is committed to the session history together with any generated
report artifacts.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for the SQLite index, sessions and artifacts (empty runs in-memory)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "completion backend: genai, openai, anthropic or mock")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "local", "user id recorded on session turns")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(artifactsCmd)
	rootCmd.AddCommand(infoCmd)
}

// loadSettings merges the config file with command line overrides. API keys
// are resolved from the environment only.
func loadSettings() (config.Settings, error) {
	settings, err := config.Load(cfgFile)
	if err != nil {
		return settings, err
	}

	if dataDir != "" {
		settings.DataDir = dataDir
	}
	if provider != "" {
		settings.Provider = provider
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}

	return settings, settings.Validate()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
