package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/grovetools/dtcli/internal/tracker"
	"github.com/grovetools/dtcli/pkg/datatrue"
)

// remote adapts the DataTrue client to the tracker's Remote and StatusFetcher.
type remote struct {
	client *datatrue.Client
}

var (
	_ tracker.Remote        = remote{}
	_ tracker.StatusFetcher = remote{}
)

func (r remote) Resolve(ctx context.Context, t tracker.Target) (tracker.Resource, error) {
	var (
		id   int
		name string
	)
	switch t.Kind {
	case tracker.KindTest:
		test, err := r.client.GetTest(ctx, t.ID)
		if err != nil {
			return tracker.Resource{}, mapNotFound(err)
		}
		id, name = test.ID, test.Name
	case tracker.KindSuite:
		suite, err := r.client.GetSuite(ctx, t.ID)
		if err != nil {
			return tracker.Resource{}, mapNotFound(err)
		}
		id, name = suite.ID, suite.Name
	default:
		return tracker.Resource{}, fmt.Errorf("%w: cannot run a %s", tracker.ErrResourceMismatch, t.Kind)
	}

	if id != t.ID {
		return tracker.Resource{}, fmt.Errorf("%w: asked for %s, got id %d", tracker.ErrResourceMismatch, t, id)
	}
	return tracker.Resource{Kind: t.Kind, ID: id, Name: name}, nil
}

func (r remote) SuiteTests(ctx context.Context, suite tracker.Resource) ([]tracker.Resource, error) {
	tests, err := r.client.SuiteTests(ctx, suite.ID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	out := make([]tracker.Resource, len(tests))
	for i, test := range tests {
		out[i] = tracker.Resource{Kind: tracker.KindTest, ID: test.ID, Name: test.Name}
	}
	return out, nil
}

func (r remote) Launch(ctx context.Context, res tracker.Resource, opts tracker.LaunchOptions) (string, error) {
	kind := datatrue.ResourceTest
	if res.Kind == tracker.KindSuite {
		kind = datatrue.ResourceSuite
	}
	return r.client.Run(ctx, kind, res.ID, datatrue.RunOptions{
		EmailUsers: opts.NotifyUserIDs,
		Variables:  opts.Variables,
	})
}

func (r remote) FetchStatus(ctx context.Context, h tracker.JobHandle) (tracker.Snapshot, error) {
	status, err := r.client.JobStatus(ctx, h.JobID)
	if err != nil {
		return tracker.Snapshot{}, err
	}

	snap := tracker.Snapshot{Status: tracker.Status(status.Status)}
	if status.Progress != nil {
		snap.Percentage = status.Progress.Percentage
		if status.Progress.Tests != nil {
			snap.Children = make([]tracker.ChildState, len(status.Progress.Tests))
			for i, test := range status.Progress.Tests {
				snap.Children[i] = tracker.ChildState{State: tracker.Status(test.State)}
			}
		}
	}
	return snap, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, datatrue.ErrNotFound) {
		return tracker.ErrNotFound
	}
	return err
}
