package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/grovetools/dtcli/internal/tracker"
	"github.com/grovetools/dtcli/pkg/datatrue"
)

func newTestRemote(t *testing.T, handler http.HandlerFunc) remote {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := datatrue.NewClient(datatrue.Options{
		Endpoint:     srv.URL,
		UserToken:    "user",
		AccountToken: "account",
		Timeout:      time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return remote{client: client}
}

func TestRemoteResolve(t *testing.T) {
	r := newTestRemote(t, func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/management_api/v1/tests/7":
			w.Write([]byte(`{"id": 7, "name": "login"}`))
		case "/management_api/v1/suites/8":
			w.Write([]byte(`{"id": 9, "name": "wrong"}`))
		default:
			http.NotFound(w, req)
		}
	})

	res, err := r.Resolve(context.Background(), tracker.Target{Kind: tracker.KindTest, ID: 7})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff(tracker.Resource{Kind: tracker.KindTest, ID: 7, Name: "login"}, res); diff != "" {
		t.Errorf("resource (-want +got):\n%s", diff)
	}

	_, err = r.Resolve(context.Background(), tracker.Target{Kind: tracker.KindSuite, ID: 8})
	if !errors.Is(err, tracker.ErrResourceMismatch) {
		t.Errorf("Expected ErrResourceMismatch, got %v", err)
	}

	_, err = r.Resolve(context.Background(), tracker.Target{Kind: tracker.KindTest, ID: 404})
	if !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("Expected tracker.ErrNotFound, got %v", err)
	}
}

func TestRemoteLaunchSendsOptions(t *testing.T) {
	r := newTestRemote(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/ci_api/suites/5/trigger" {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		var body datatrue.RunOptions
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		want := datatrue.RunOptions{EmailUsers: []int{3}, Variables: map[string]string{"env": "qa"}}
		if diff := cmp.Diff(want, body); diff != "" {
			t.Errorf("run options (-want +got):\n%s", diff)
		}
		w.Write([]byte(`{"job_id": "abc"}`))
	})

	jobID, err := r.Launch(context.Background(),
		tracker.Resource{Kind: tracker.KindSuite, ID: 5, Name: "smoke"},
		tracker.LaunchOptions{NotifyUserIDs: []int{3}, Variables: map[string]string{"env": "qa"}})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if jobID != "abc" {
		t.Errorf("jobID = %q, want abc", jobID)
	}
}

func TestRemoteFetchStatus(t *testing.T) {
	r := newTestRemote(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"status": "completed", "progress": {"percentage": 100, "tests": [
			{"id": 1, "name": "a", "state": "validated"},
			{"id": 2, "name": "b", "state": "failed"}
		]}}`))
	})

	snap, err := r.FetchStatus(context.Background(), tracker.JobHandle{JobID: "abc"})
	if err != nil {
		t.Fatalf("FetchStatus failed: %v", err)
	}
	want := tracker.Snapshot{
		Status:     "completed",
		Percentage: 100,
		Children:   []tracker.ChildState{{State: tracker.StatusValidated}, {State: tracker.StatusFailed}},
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot (-want +got):\n%s", diff)
	}
	if got := tracker.Aggregate(snap); got != tracker.StatusFailed {
		t.Errorf("Aggregate = %s, want failed", got)
	}
}
