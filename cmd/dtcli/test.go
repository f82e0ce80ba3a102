package main

import (
	"github.com/grovetools/dtcli/internal/tracker"
	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Work with DataTrue tests",
}

var testRunFlags runFlags

var testRunCmd = &cobra.Command{
	Use:   "run <test-id>...",
	Short: "Run one or more tests",
	Long: `Trigger a run of every given test. With --follow, poll each run until it
finishes and exit with status 3 if any of them failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTargets(cmd, tracker.KindTest, args, testRunFlags)
	},
}

func init() {
	testRunFlags.register(testRunCmd, "tests")
	testCmd.AddCommand(testRunCmd)
}
