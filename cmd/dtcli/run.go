package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/dtcli/internal/exitcodes"
	"github.com/grovetools/dtcli/internal/history"
	"github.com/grovetools/dtcli/internal/tracker"
	"github.com/grovetools/dtcli/pkg/datatrue"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// runFlags are shared by `test run` and `suite run`.
type runFlags struct {
	follow     bool
	emailUsers []int
	variables  string
	concurrent bool
	plain      bool
}

func (f *runFlags) register(cmd *cobra.Command, noun string) {
	cmd.Flags().BoolVarP(&f.follow, "follow", "f", false, fmt.Sprintf("View the progress of the %s as they run", noun))
	cmd.Flags().IntSliceVarP(&f.emailUsers, "email-users", "e", nil, "IDs of the users you want to receive an email containing the test results")
	cmd.Flags().StringVarP(&f.variables, "variables", "V", "", fmt.Sprintf("Variables to set for the %s run, as a JSON object", noun))
	cmd.Flags().BoolVar(&f.plain, "plain", false, "Print one line per finished job instead of the interactive view")
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, len(args))
	for i, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid ID %q", arg)
		}
		ids[i] = id
	}
	return ids, nil
}

func parseVariables(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var vars map[string]string
	if err := json.Unmarshal([]byte(raw), &vars); err != nil || vars == nil {
		return nil, fmt.Errorf("variables must be a valid JSON object of strings")
	}
	return vars, nil
}

func newRemote() (remote, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return remote{}, err
	}
	client, err := datatrue.NewClient(datatrue.Options{
		Endpoint:     cfg.APIEndpoint,
		UserToken:    cfg.UserToken,
		AccountToken: cfg.AccountToken,
		Timeout:      timeout,
		RetryMax:     cfg.RetryMax,
		Logger:       logrus.NewEntry(logrus.StandardLogger()),
	})
	if err != nil {
		return remote{}, fmt.Errorf("failed to create DataTrue client: %w", err)
	}
	return remote{client: client}, nil
}

func engineConfig() (tracker.EngineConfig, error) {
	interval, err := cfg.Interval()
	if err != nil {
		return tracker.EngineConfig{}, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return tracker.EngineConfig{}, err
	}
	ec := tracker.EngineConfig{
		Interval:      interval,
		FetchTimeout:  timeout,
		MaxPollErrors: cfg.MaxPollErrors,
	}
	if cfg.AbortedFails {
		ec.Aborted = tracker.AbortedFails
	}
	return ec, nil
}

// runTargets launches the targets and, with --follow, tracks them until every job has
// left the tracker.
func runTargets(cmd *cobra.Command, kind tracker.Kind, args []string, flags runFlags) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	vars, err := parseVariables(flags.variables)
	if err != nil {
		return err
	}
	rem, err := newRemote()
	if err != nil {
		return err
	}

	targets := make([]tracker.Target, len(ids))
	for i, id := range ids {
		targets[i] = tracker.Target{Kind: kind, ID: id}
	}
	opts := tracker.LaunchOptions{
		NotifyUserIDs: flags.emailUsers,
		Variables:     vars,
		FanOut:        flags.concurrent,
		Follow:        flags.follow,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s := &session{
		remote:  rem,
		tracker: tracker.New(),
		targets: targets,
		opts:    opts,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}
	s.coordinator = tracker.NewCoordinator(rem, s.tracker, logrus.NewEntry(logrus.StandardLogger()))

	switch {
	case !flags.follow:
		err = s.launchOnly(ctx)
	case flags.plain:
		err = s.followPlain(ctx)
	default:
		err = s.followTUI(ctx)
	}
	if err != nil {
		return err
	}

	if code := s.exitCode(); code != exitcodes.Success {
		return &exitError{code: code}
	}
	return nil
}

// session is one invocation of a run command.
type session struct {
	remote      remote
	tracker     *tracker.Tracker
	coordinator *tracker.Coordinator
	engine      *tracker.Engine
	targets     []tracker.Target
	opts        tracker.LaunchOptions
	out         io.Writer
	errOut      io.Writer

	results []tracker.Result

	mu      sync.Mutex
	records []history.Record
}

func (s *session) exitCode() int {
	var outcome tracker.Outcome
	if s.engine != nil {
		outcome = s.engine.Outcome()
	}
	return exitcodes.For(tracker.Failed(s.results), outcome.PollsExhausted, outcome.JobsFailed)
}

func (s *session) launchOnly(ctx context.Context) error {
	s.results = s.coordinator.Launch(ctx, s.targets, s.opts)
	for _, r := range s.results {
		if r.Err != nil {
			fmt.Fprintln(s.errOut, r.Err)
			continue
		}
		fmt.Fprintf(s.out, "Started %s %d: %s (job %s)\n", r.Handle.Kind, r.Handle.ResourceID, r.Handle.Name, r.Handle.JobID)
	}
	return nil
}

func (s *session) newEngine(sink tracker.Sink, onEvict func(tracker.TrackedJob, tracker.EvictReason)) error {
	ec, err := engineConfig()
	if err != nil {
		return err
	}
	s.engine = tracker.NewEngine(s.tracker, s.remote, ec,
		tracker.WithSink(sink),
		tracker.WithLogger(logrus.NewEntry(logrus.StandardLogger())),
		tracker.WithEvictHook(func(tj tracker.TrackedJob, reason tracker.EvictReason) {
			s.record(tj, reason)
			if onEvict != nil {
				onEvict(tj, reason)
			}
		}),
	)
	return nil
}

func (s *session) record(tj tracker.TrackedJob, reason tracker.EvictReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, history.Record{
		JobID:      tj.Handle.JobID,
		Kind:       tj.Handle.Kind.String(),
		ResourceID: tj.Handle.ResourceID,
		Name:       tj.Handle.Name,
		Status:     string(tj.LastFrame.Status),
		Reason:     reason.String(),
		Percentage: tj.LastFrame.Percentage,
		LaunchedAt: tj.Handle.LaunchedAt,
		FinishedAt: time.Now(),
	})
}

// followFinished reports whether a follow session has nothing left to wait for. A
// frame-set can be snapshotted before the last launch registered its job, so an empty one
// only counts once the tracker is empty too.
func followFinished(launchesDone bool, frames []tracker.Frame, tracked int) bool {
	return launchesDone && len(frames) == 0 && tracked == 0
}

func (s *session) reportGaveUp(tj tracker.TrackedJob) {
	fmt.Fprintf(s.errOut, "Stopped following %s %d: %s after %d failed status checks\n",
		tj.Handle.Kind, tj.Handle.ResourceID, tj.Handle.Name, tj.PollErrors)
}

func (s *session) saveHistory() {
	s.mu.Lock()
	records := s.records
	s.mu.Unlock()

	if err := history.Append(configDir, records, cfg.HistoryLimit); err != nil {
		logrus.WithError(err).Warn("Failed to save run history")
	}
}

func (s *session) followPlain(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var launchesDone atomic.Bool
	sink := newPlainSink(s.out)
	err := s.newEngine(tracker.SinkFunc(func(frames []tracker.Frame) {
		sink.Render(frames)
		if followFinished(launchesDone.Load(), frames, s.tracker.Len()) {
			cancel()
		}
	}), func(tj tracker.TrackedJob, reason tracker.EvictReason) {
		if reason == tracker.EvictPollErrors {
			s.reportGaveUp(tj)
		}
	})
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.engine.Run(ctx)
	}()

	s.results = s.coordinator.Launch(ctx, s.targets, s.opts)
	for _, r := range s.results {
		if r.Err != nil {
			fmt.Fprintln(s.errOut, r.Err)
		}
	}
	launchesDone.Store(true)
	if s.tracker.Len() == 0 {
		cancel()
	}

	<-done
	s.saveHistory()
	return nil
}

func (s *session) followTUI(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	restore, err := logToFile(configDir)
	if err != nil {
		return err
	}
	defer restore()

	var program *tea.Program
	var gaveUp []tracker.TrackedJob
	err = s.newEngine(tracker.SinkFunc(func(frames []tracker.Frame) {
		program.Send(framesMsg(frames))
	}), func(tj tracker.TrackedJob, reason tracker.EvictReason) {
		// Cancellations come from inside Update and are applied there; sending from
		// this hook would block the program.
		if reason != tracker.EvictPollErrors {
			return
		}
		s.mu.Lock()
		gaveUp = append(gaveUp, tj)
		s.mu.Unlock()
		program.Send(evictedMsg{job: tj, reason: reason})
	})
	if err != nil {
		return err
	}

	program = tea.NewProgram(newRunModel(s.engine), tea.WithContext(ctx))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.engine.Run(ctx)
	}()
	go func() {
		results := s.coordinator.Launch(ctx, s.targets, s.opts)
		program.Send(launchedMsg{results: results})
	}()

	final, err := program.Run()
	cancel()
	<-done

	if m, ok := final.(runModel); ok {
		s.results = m.results
		if !m.launchesDone {
			// Quit before launches finished; their outcome is unknown.
			s.results = append(s.results, tracker.Result{Err: fmt.Errorf("interrupted before all launches finished")})
		}
	}
	for _, r := range s.results {
		if r.Err != nil {
			fmt.Fprintln(s.errOut, r.Err)
		}
	}
	s.mu.Lock()
	dropped := gaveUp
	s.mu.Unlock()
	for _, tj := range dropped {
		s.reportGaveUp(tj)
	}
	s.saveHistory()

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run progress view: %w", err)
	}
	return nil
}
