package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/grovetools/dtcli/internal/config"
	"github.com/spf13/cobra"
)

var (
	configDir   string
	logLevel    string
	endpointURL string

	// cfg is loaded once the command line has been parsed.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "dtcli",
	Short:         "DataTrue command line client",
	Long:          `A CLI tool for running DataTrue tests and suites and following their progress.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir = config.ExpandPath(configDir)
		loaded, err := config.Load(configDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if endpointURL != "" {
			loaded.APIEndpoint = endpointURL
		}
		cfg = loaded
		return setupLogging(cfg.LogLevel, os.Stderr)
	},
}

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func init() {
	info := getVersionInfo()
	rootCmd.Version = info.Version
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.DefaultDir(), "Configuration directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: trace, debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&endpointURL, "endpoint", "", "DataTrue API endpoint (default from config)")

	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(suiteCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
