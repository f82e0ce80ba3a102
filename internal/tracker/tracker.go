// Package tracker launches remote test and suite runs and follows them to completion.
package tracker

import "sync"

// Tracker is the ordered set of jobs under observation. It is safe for concurrent use;
// the launch path, user input and the engine's tick all go through it.
type Tracker struct {
	mu   sync.Mutex
	jobs []TrackedJob
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{}
}

// Add appends a job for the handle. It returns false if the job ID is already tracked.
func (t *Tracker) Add(h JobHandle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, j := range t.jobs {
		if j.Handle.JobID == h.JobID {
			return false
		}
	}
	t.jobs = append(t.jobs, newTrackedJob(h))
	return true
}

// Remove drops every job matching match and returns the removed jobs in tracker order.
func (t *Tracker) Remove(match func(TrackedJob) bool) []TrackedJob {
	t.mu.Lock()
	defer t.mu.Unlock()

	var removed []TrackedJob
	kept := make([]TrackedJob, 0, len(t.jobs))
	for _, j := range t.jobs {
		if match(j) {
			removed = append(removed, j)
			continue
		}
		kept = append(kept, j)
	}
	t.jobs = kept
	return removed
}

// Snapshot returns a copy of the tracked jobs in insertion order.
func (t *Tracker) Snapshot() []TrackedJob {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TrackedJob, len(t.jobs))
	copy(out, t.jobs)
	return out
}

// Update applies fn to the tracked job with the given ID. It returns false, without
// calling fn, when the job is no longer tracked.
func (t *Tracker) Update(jobID string, fn func(*TrackedJob)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.jobs {
		if t.jobs[i].Handle.JobID == jobID {
			fn(&t.jobs[i])
			return true
		}
	}
	return false
}

// Len returns the number of tracked jobs.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}
