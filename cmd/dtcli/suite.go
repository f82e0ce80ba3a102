package main

import (
	"github.com/grovetools/dtcli/internal/tracker"
	"github.com/spf13/cobra"
)

var suiteCmd = &cobra.Command{
	Use:   "suite",
	Short: "Work with DataTrue suites",
}

var suiteRunFlags runFlags

var suiteRunCmd = &cobra.Command{
	Use:   "run <suite-id>...",
	Short: "Run one or more suites",
	Long: `Trigger a run of every given suite. With --concurrent, each test of a suite
is started as its own job instead of one job for the whole suite.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTargets(cmd, tracker.KindSuite, args, suiteRunFlags)
	},
}

func init() {
	suiteRunFlags.register(suiteRunCmd, "suites")
	suiteRunCmd.Flags().BoolVarP(&suiteRunFlags.concurrent, "concurrent", "c", false, "Run the tests of each suite concurrently as separate jobs")
	suiteCmd.AddCommand(suiteRunCmd)
}
