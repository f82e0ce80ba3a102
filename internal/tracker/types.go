package tracker

import (
	"fmt"
	"time"
)

// Kind distinguishes the two runnable resource types.
type Kind int

const (
	KindTest Kind = iota
	KindSuite
)

func (k Kind) String() string {
	switch k {
	case KindTest:
		return "test"
	case KindSuite:
		return "suite"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Status is a canonical run status.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusValidated Status = "validated"
	StatusFailed    Status = "failed"
	StatusError     Status = "error"
	StatusAborted   Status = "aborted"
)

// Terminal reports whether no further transition can happen after s.
func (s Status) Terminal() bool {
	switch s {
	case StatusValidated, StatusFailed, StatusError, StatusAborted:
		return true
	}
	return false
}

// Active reports whether s is queued or running.
func (s Status) Active() bool {
	return s == StatusQueued || s == StatusRunning
}

// Target identifies a resource to launch.
type Target struct {
	Kind Kind
	ID   int
}

func (t Target) String() string {
	return fmt.Sprintf("%s %d", t.Kind, t.ID)
}

// Resource is a resolved runnable resource.
type Resource struct {
	Kind Kind
	ID   int
	Name string
}

// JobHandle identifies one remote execution. It is immutable once created.
type JobHandle struct {
	JobID      string
	ResourceID int
	Name       string
	Kind       Kind
	LaunchedAt time.Time
}

// ChildState is the outcome of one child (a test within a suite run).
type ChildState struct {
	State Status
}

// Snapshot is one raw poll result. Status may be the generic done marker.
type Snapshot struct {
	Status     Status
	Percentage int
	Children   []ChildState
}

// Frame is the immutable render data for one job in one tick.
type Frame struct {
	JobID      string
	ResourceID int
	Name       string
	Kind       Kind
	Percentage int
	Status     Status
}

// EvictReason records why a job left the tracker.
type EvictReason int

const (
	EvictNone EvictReason = iota
	EvictTerminal
	EvictPollErrors
	EvictCancelled
)

func (r EvictReason) String() string {
	switch r {
	case EvictTerminal:
		return "finished"
	case EvictPollErrors:
		return "poll-errors"
	case EvictCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// TrackedJob is the tracker's per-job state. Values returned by the tracker are copies.
type TrackedJob struct {
	Handle     JobHandle
	PollErrors int
	LastFrame  Frame
	Terminal   bool
	// Evicting is set once the job has been marked for removal by the engine.
	Evicting EvictReason
}

func newTrackedJob(h JobHandle) TrackedJob {
	return TrackedJob{
		Handle: h,
		LastFrame: Frame{
			JobID:      h.JobID,
			ResourceID: h.ResourceID,
			Name:       h.Name,
			Kind:       h.Kind,
			Status:     StatusQueued,
		},
	}
}
