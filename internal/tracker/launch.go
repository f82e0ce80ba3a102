package tracker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Remote is the launch side of the test-automation API.
type Remote interface {
	// Resolve looks a target up. It fails with ErrNotFound or ErrResourceMismatch.
	Resolve(ctx context.Context, t Target) (Resource, error)
	// SuiteTests lists the tests of a suite in suite order.
	SuiteTests(ctx context.Context, suite Resource) ([]Resource, error)
	// Launch starts one run of the resource and returns its job ID.
	Launch(ctx context.Context, r Resource, opts LaunchOptions) (string, error)
}

// LaunchOptions are passed through to every launch.
type LaunchOptions struct {
	NotifyUserIDs []int
	Variables     map[string]string
	// FanOut runs each test of a suite as its own job instead of one suite job.
	FanOut bool
	// Follow registers launched jobs with the tracker.
	Follow bool
}

// Result is the outcome of launching one target, or one test of a fanned-out suite.
type Result struct {
	Target Target
	Parent *Target
	Handle JobHandle
	Err    error
}

// Failed reports whether any result carries an error.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Coordinator resolves targets, launches them and registers the launched jobs.
type Coordinator struct {
	remote  Remote
	tracker *Tracker
	log     *logrus.Entry
	now     func() time.Time
}

func NewCoordinator(remote Remote, t *Tracker, log *logrus.Entry) *Coordinator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Coordinator{
		remote:  remote,
		tracker: t,
		log:     log.WithField("component", "launcher"),
		now:     time.Now,
	}
}

// Launch launches every target concurrently. A failing target never stops its siblings.
// Results come back in target order, with a fanned-out suite contributing one result per
// test in suite order.
func (c *Coordinator) Launch(ctx context.Context, targets []Target, opts LaunchOptions) []Result {
	perTarget := make([][]Result, len(targets))

	var g errgroup.Group
	for i, target := range targets {
		g.Go(func() error {
			if opts.FanOut && target.Kind == KindSuite {
				perTarget[i] = c.launchFanOut(ctx, target, opts)
			} else {
				perTarget[i] = []Result{c.launchOne(ctx, target, opts)}
			}
			return nil
		})
	}
	_ = g.Wait()

	var results []Result
	for _, rs := range perTarget {
		results = append(results, rs...)
	}
	return results
}

func (c *Coordinator) launchOne(ctx context.Context, target Target, opts LaunchOptions) Result {
	res, err := c.remote.Resolve(ctx, target)
	if err != nil {
		return c.failed(Result{Target: target}, err)
	}
	return c.start(ctx, Result{Target: target}, res, opts)
}

func (c *Coordinator) launchFanOut(ctx context.Context, target Target, opts LaunchOptions) []Result {
	suite, err := c.remote.Resolve(ctx, target)
	if err != nil {
		return []Result{c.failed(Result{Target: target}, err)}
	}
	tests, err := c.remote.SuiteTests(ctx, suite)
	if err != nil {
		return []Result{c.failed(Result{Target: target}, err)}
	}
	if len(tests) == 0 {
		c.log.WithField("suite", suite.ID).Warn("Suite has no tests to run")
		return nil
	}

	results := make([]Result, len(tests))
	var g errgroup.Group
	for i, test := range tests {
		g.Go(func() error {
			parent := target
			base := Result{Target: Target{Kind: KindTest, ID: test.ID}, Parent: &parent}
			results[i] = c.start(ctx, base, test, opts)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Coordinator) start(ctx context.Context, base Result, res Resource, opts LaunchOptions) Result {
	jobID, err := c.remote.Launch(ctx, res, opts)
	if err != nil {
		return c.failed(base, err)
	}

	base.Handle = JobHandle{
		JobID:      jobID,
		ResourceID: res.ID,
		Name:       res.Name,
		Kind:       res.Kind,
		LaunchedAt: c.now(),
	}
	c.log.WithFields(logrus.Fields{
		"target": base.Target.String(),
		"job":    jobID,
	}).Debug("Launched")

	if opts.Follow {
		c.tracker.Add(base.Handle)
	}
	return base
}

func (c *Coordinator) failed(base Result, err error) Result {
	base.Err = &LaunchError{Target: base.Target, Parent: base.Parent, Err: err}
	c.log.WithError(base.Err).Debug("Launch failed")
	return base
}
