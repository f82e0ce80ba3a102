package tracker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval      = 2 * time.Second
	DefaultFetchTimeout  = 10 * time.Second
	DefaultMaxPollErrors = 5
)

// StatusFetcher fetches the raw status of a launched job.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, h JobHandle) (Snapshot, error)
}

// Sink receives every complete frame-set, in tracker order.
type Sink interface {
	Render(frames []Frame)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(frames []Frame)

func (f SinkFunc) Render(frames []Frame) { f(frames) }

// NopSink discards frames.
type NopSink struct{}

func (NopSink) Render([]Frame) {}

// AbortedPolicy decides whether a job that ends aborted counts as a failure.
type AbortedPolicy int

const (
	AbortedNeutral AbortedPolicy = iota
	AbortedFails
)

// EngineConfig holds the polling parameters. Zero values fall back to the defaults.
type EngineConfig struct {
	Interval      time.Duration
	FetchTimeout  time.Duration
	MaxPollErrors int
	Aborted       AbortedPolicy
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.MaxPollErrors <= 0 {
		c.MaxPollErrors = DefaultMaxPollErrors
	}
	return c
}

// Outcome summarises the failures observed by an engine so far.
type Outcome struct {
	JobsFailed     bool
	PollsExhausted bool
}

// Engine polls every tracked job on a shared tick and publishes frame-sets to a sink.
type Engine struct {
	tracker *Tracker
	fetcher StatusFetcher
	sink    Sink
	cfg     EngineConfig
	log     *logrus.Entry

	mu      sync.Mutex
	frames  []Frame
	onEvict func(TrackedJob, EvictReason)

	jobsFailed     atomic.Bool
	pollsExhausted atomic.Bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSink sets the sink that receives every frame-set. The default is NopSink.
func WithSink(s Sink) EngineOption {
	return func(e *Engine) { e.sink = s }
}

// WithLogger sets the logger; the engine adds its own component field.
func WithLogger(log *logrus.Entry) EngineOption {
	return func(e *Engine) { e.log = log }
}

// WithEvictHook registers fn to be called once for every job leaving the tracker.
func WithEvictHook(fn func(TrackedJob, EvictReason)) EngineOption {
	return func(e *Engine) { e.onEvict = fn }
}

// NewEngine returns an engine polling the jobs in t through f.
func NewEngine(t *Tracker, f StatusFetcher, cfg EngineConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		tracker: t,
		fetcher: f,
		sink:    NopSink{},
		cfg:     cfg.withDefaults(),
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithField("component", "engine")
	return e
}

// Run ticks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

type pollResult struct {
	snapshot Snapshot
	err      error
}

// Tick runs one polling cycle and returns the frame-set it published. When ctx is
// cancelled before all fetches settle, nothing is applied or published.
func (e *Engine) Tick(ctx context.Context) []Frame {
	jobs := e.tracker.Snapshot()
	results := make([]pollResult, len(jobs))

	var g errgroup.Group
	for i, job := range jobs {
		if job.Terminal || job.Evicting != EvictNone {
			continue
		}
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
			defer cancel()
			snap, err := e.fetcher.FetchStatus(fetchCtx, job.Handle)
			if err == nil && snap.Status == "" {
				err = ErrEmptyStatus
			}
			results[i] = pollResult{snapshot: snap, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil
	}

	frames := make([]Frame, 0, len(jobs))
	evict := make(map[string]EvictReason)
	for i, job := range jobs {
		if job.Terminal || job.Evicting != EvictNone {
			continue
		}
		res := results[i]
		var (
			frame  Frame
			reason EvictReason
		)
		applied := e.tracker.Update(job.Handle.JobID, func(tj *TrackedJob) {
			if res.err != nil {
				tj.PollErrors++
				pollErr := &PollError{JobID: tj.Handle.JobID, Attempts: tj.PollErrors, Err: res.err}
				if tj.PollErrors >= e.cfg.MaxPollErrors {
					reason = EvictPollErrors
					e.log.WithError(pollErr).WithField("job", tj.Handle.JobID).Error("Giving up on job after repeated poll failures")
				} else {
					e.log.WithError(pollErr).WithField("job", tj.Handle.JobID).Debug("Poll failed")
				}
			} else {
				tj.PollErrors = 0
				tj.LastFrame = nextFrame(tj.LastFrame, res.snapshot)
				if tj.LastFrame.Status.Terminal() {
					tj.Terminal = true
					reason = EvictTerminal
				}
			}
			tj.Evicting = reason
			frame = tj.LastFrame
		})
		if !applied {
			// Cancelled while the fetch was in flight.
			continue
		}
		frames = append(frames, frame)
		if reason != EvictNone {
			evict[job.Handle.JobID] = reason
		}
	}

	e.publish(frames)

	if len(evict) > 0 {
		removed := e.tracker.Remove(func(tj TrackedJob) bool {
			_, ok := evict[tj.Handle.JobID]
			return ok
		})
		for _, tj := range removed {
			e.evicted(tj, evict[tj.Handle.JobID])
		}
	}

	return frames
}

// nextFrame folds a successful snapshot into the previous frame.
func nextFrame(prev Frame, snap Snapshot) Frame {
	status := Aggregate(snap)
	pct := snap.Percentage
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if !status.Terminal() && (pct < prev.Percentage || pct == 100) {
		pct = prev.Percentage
	}

	next := prev
	next.Status = status
	next.Percentage = pct
	return next
}

func (e *Engine) publish(frames []Frame) {
	e.mu.Lock()
	e.frames = frames
	e.mu.Unlock()

	e.sink.Render(frames)
}

func (e *Engine) evicted(tj TrackedJob, reason EvictReason) {
	log := e.log.WithFields(logrus.Fields{
		"job":    tj.Handle.JobID,
		"name":   tj.Handle.Name,
		"reason": reason.String(),
	})

	switch reason {
	case EvictTerminal:
		status := tj.LastFrame.Status
		log = log.WithField("status", status)
		switch {
		case status == StatusFailed, status == StatusError:
			e.jobsFailed.Store(true)
		case status == StatusAborted && e.cfg.Aborted == AbortedFails:
			e.jobsFailed.Store(true)
		}
		log.Info("Job finished")
	case EvictPollErrors:
		e.pollsExhausted.Store(true)
	case EvictCancelled:
		log.Info("Stopped following job")
	}

	e.mu.Lock()
	hook := e.onEvict
	e.mu.Unlock()
	if hook != nil {
		hook(tj, reason)
	}
}

// Frames returns the most recently published frame-set.
func (e *Engine) Frames() []Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Frame, len(e.frames))
	copy(out, e.frames)
	return out
}

// Tracked returns the number of jobs still under observation.
func (e *Engine) Tracked() int {
	return e.tracker.Len()
}

// Outcome reports the failures raised so far.
func (e *Engine) Outcome() Outcome {
	return Outcome{
		JobsFailed:     e.jobsFailed.Load(),
		PollsExhausted: e.pollsExhausted.Load(),
	}
}

// Cancel stops observing the job if it is still queued or running. Nothing is sent to
// the remote side.
func (e *Engine) Cancel(jobID string) bool {
	removed := e.tracker.Remove(func(tj TrackedJob) bool {
		return tj.Handle.JobID == jobID && cancellable(tj)
	})
	for _, tj := range removed {
		e.evicted(tj, EvictCancelled)
	}
	return len(removed) > 0
}

// CancelActive stops observing every queued or running job.
func (e *Engine) CancelActive() []TrackedJob {
	removed := e.tracker.Remove(cancellable)
	for _, tj := range removed {
		e.evicted(tj, EvictCancelled)
	}
	return removed
}

func cancellable(tj TrackedJob) bool {
	return !tj.Terminal && tj.Evicting == EvictNone && tj.LastFrame.Status.Active()
}
