package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by a Remote when a target does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrResourceMismatch is returned by a Remote when a target resolves to a different resource.
	ErrResourceMismatch = errors.New("resource mismatch")
	// ErrEmptyStatus marks a status response that carried no status value.
	ErrEmptyStatus = errors.New("empty job status")
)

// LaunchError reports a target that could not be resolved or launched.
type LaunchError struct {
	Target Target
	// Parent is the suite a fanned-out test belongs to.
	Parent *Target
	Err    error
}

func (e *LaunchError) Error() string {
	if e.Parent != nil {
		return fmt.Sprintf("failed to run %s from %s: %v", e.Target, *e.Parent, e.Err)
	}
	return fmt.Sprintf("failed to run %s: %v", e.Target, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// PollError reports a failed status fetch for one job in one tick.
type PollError struct {
	JobID    string
	Attempts int
	Err      error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("failed to fetch status for job %s (attempt %d): %v", e.JobID, e.Attempts, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }
