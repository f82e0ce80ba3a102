package datatrue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{
		Endpoint:     srv.URL + "/",
		UserToken:    "user-token",
		AccountToken: "account-token",
		Timeout:      time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Error("Expected error when no token is configured")
	}
}

func TestGetTest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/management_api/v1/tests/12" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token token=user-token" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		w.Write([]byte(`{"id": 12, "name": "Checkout flow", "test_type": 1}`))
	})

	test, err := client.GetTest(context.Background(), 12)
	if err != nil {
		t.Fatalf("GetTest failed: %v", err)
	}
	if diff := cmp.Diff(&Test{ID: 12, Name: "Checkout flow", TestType: 1}, test); diff != "" {
		t.Errorf("unexpected test (-want +got):\n%s", diff)
	}
}

func TestGetSuiteNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.GetSuite(context.Background(), 3)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSuiteTests(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/management_api/v1/suites/5/tests" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]`))
	})

	tests, err := client.SuiteTests(context.Background(), 5)
	if err != nil {
		t.Fatalf("SuiteTests failed: %v", err)
	}
	if diff := cmp.Diff([]Test{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, tests); diff != "" {
		t.Errorf("unexpected tests (-want +got):\n%s", diff)
	}
}

func TestRun(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/ci_api/suites/5/trigger" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("api_key"); got != "account-token" {
			t.Errorf("unexpected api_key %q", got)
		}
		var opts RunOptions
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		want := RunOptions{EmailUsers: []int{4, 8}, Variables: map[string]string{"env": "prod"}}
		if diff := cmp.Diff(want, opts); diff != "" {
			t.Errorf("unexpected body (-want +got):\n%s", diff)
		}
		w.Write([]byte(`{"job_id": "abc123"}`))
	})

	jobID, err := client.Run(context.Background(), ResourceSuite, 5, RunOptions{
		EmailUsers: []int{4, 8},
		Variables:  map[string]string{"env": "prod"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if jobID != "abc123" {
		t.Errorf("jobID = %q, want abc123", jobID)
	}
}

func TestRunAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": "invalid variables"}`))
	})

	_, err := client.Run(context.Background(), ResourceTest, 1, RunOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
}

func TestJobStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ci_api/job_status/abc123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status": "completed", "progress": {"percentage": 100, "tests": [{"id": 1, "name": "a", "state": "validated"}, {"id": 2, "name": "b", "state": "failed"}]}}`))
	})

	status, err := client.JobStatus(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("JobStatus failed: %v", err)
	}
	want := &JobStatus{
		Status: "completed",
		Progress: &Progress{
			Percentage: 100,
			Tests: []TestProgress{
				{ID: 1, Name: "a", State: "validated"},
				{ID: 2, Name: "b", State: "failed"},
			},
		},
	}
	if diff := cmp.Diff(want, status); diff != "" {
		t.Errorf("unexpected status (-want +got):\n%s", diff)
	}
}

func TestJobStatusIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{Endpoint: srv.URL, AccountToken: "t", RetryMax: 3})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if _, err := client.JobStatus(context.Background(), "abc"); err == nil {
		t.Error("Expected error for 502 response")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected exactly one request, got %d", got)
	}
}
