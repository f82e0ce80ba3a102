package main

import (
	"fmt"
	"strings"

	"github.com/grovetools/dtcli/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the dtcli configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with tokens masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		shown.UserToken = maskToken(shown.UserToken)
		shown.AccountToken = maskToken(shown.AccountToken)

		data, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		if path, err := config.FindConfigFile(configDir); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.Schema()
		if err != nil {
			return fmt.Errorf("failed to generate schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSchemaCmd)
}

// maskToken keeps the last four characters of a token.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
