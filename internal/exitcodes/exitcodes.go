// Package exitcodes defines the process exit statuses used by dtcli.
package exitcodes

// Exit code constants used by dtcli
//
// * Success (0): every launch succeeded and no followed run failed
// * RuntimeErr (1): a launch failed, a followed job could not be polled, or the command errored
// * RunFailure (3): a followed run finished failed or error (or aborted, when configured)
const (
	Success    = 0
	RuntimeErr = 1
	RunFailure = 3
)

// For picks the exit code for a run command. A failed run outranks runtime errors.
func For(launchFailed, pollsExhausted, jobsFailed bool) int {
	switch {
	case jobsFailed:
		return RunFailure
	case launchFailed, pollsExhausted:
		return RuntimeErr
	default:
		return Success
	}
}
