package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeRemote struct {
	mu         sync.Mutex
	resources  map[Target]Resource
	suiteTests map[int][]Resource
	launchErrs map[int]error
	launched   []int
	opts       []LaunchOptions
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		resources:  make(map[Target]Resource),
		suiteTests: make(map[int][]Resource),
		launchErrs: make(map[int]error),
	}
}

func (r *fakeRemote) addTest(id int, name string) Resource {
	res := Resource{Kind: KindTest, ID: id, Name: name}
	r.resources[Target{Kind: KindTest, ID: id}] = res
	return res
}

func (r *fakeRemote) addSuite(id int, name string, tests ...Resource) {
	r.resources[Target{Kind: KindSuite, ID: id}] = Resource{Kind: KindSuite, ID: id, Name: name}
	r.suiteTests[id] = tests
}

func (r *fakeRemote) Resolve(_ context.Context, t Target) (Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resources[t]
	if !ok {
		return Resource{}, ErrNotFound
	}
	return res, nil
}

func (r *fakeRemote) SuiteTests(_ context.Context, suite Resource) ([]Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suiteTests[suite.ID], nil
}

func (r *fakeRemote) Launch(_ context.Context, res Resource, opts LaunchOptions) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.launchErrs[res.ID]; err != nil {
		return "", err
	}
	r.launched = append(r.launched, res.ID)
	r.opts = append(r.opts, opts)
	return fmt.Sprintf("job-%s-%d", res.Kind, res.ID), nil
}

func TestLaunchTestsWithUnresolvedTarget(t *testing.T) {
	remote := newFakeRemote()
	remote.addTest(1, "login")
	remote.addTest(3, "checkout")
	tr := New()
	c := NewCoordinator(remote, tr, nil)

	targets := []Target{{KindTest, 1}, {KindTest, 2}, {KindTest, 3}}
	results := c.Launch(context.Background(), targets, LaunchOptions{Follow: true})

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, want := range targets {
		if results[i].Target != want {
			t.Errorf("result %d target = %v, want %v", i, results[i].Target, want)
		}
	}

	var launchErr *LaunchError
	if !errors.As(results[1].Err, &launchErr) {
		t.Fatalf("Expected LaunchError for target 2, got %v", results[1].Err)
	}
	if launchErr.Target != targets[1] {
		t.Errorf("LaunchError names %v, want %v", launchErr.Target, targets[1])
	}
	if !errors.Is(results[1].Err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound to be wrapped, got %v", results[1].Err)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("Expected siblings to succeed, got %v / %v", results[0].Err, results[2].Err)
	}
	if !Failed(results) {
		t.Error("Failed() should report the launch error")
	}

	tracked := jobIDs(tr.Snapshot())
	if len(tracked) != 2 {
		t.Fatalf("Expected 2 tracked jobs, got %v", tracked)
	}
	for _, id := range []string{"job-test-1", "job-test-3"} {
		found := false
		for _, got := range tracked {
			found = found || got == id
		}
		if !found {
			t.Errorf("Expected %s to be tracked, got %v", id, tracked)
		}
	}
}

func TestLaunchSuiteFanOut(t *testing.T) {
	remote := newFakeRemote()
	a := remote.addTest(11, "a")
	b := remote.addTest(12, "b")
	c3 := remote.addTest(13, "c")
	remote.addSuite(5, "smoke", a, b, c3)
	remote.launchErrs[12] = errors.New("quota exceeded")
	tr := New()
	c := NewCoordinator(remote, tr, nil)

	opts := LaunchOptions{
		FanOut:        true,
		Follow:        true,
		NotifyUserIDs: []int{9},
		Variables:     map[string]string{"env": "staging"},
	}
	results := c.Launch(context.Background(), []Target{{KindSuite, 5}}, opts)

	if len(results) != 3 {
		t.Fatalf("Expected one result per test, got %d", len(results))
	}
	for i, id := range []int{11, 12, 13} {
		if results[i].Target != (Target{KindTest, id}) {
			t.Errorf("result %d target = %v", i, results[i].Target)
		}
		if results[i].Parent == nil || *results[i].Parent != (Target{KindSuite, 5}) {
			t.Errorf("result %d parent = %v, want suite 5", i, results[i].Parent)
		}
	}
	if results[1].Err == nil {
		t.Fatal("Expected failure for test 12")
	}
	if got := results[1].Err.Error(); got != "failed to run test 12 from suite 5: quota exceeded" {
		t.Errorf("unexpected error message %q", got)
	}
	if tr.Len() != 2 {
		t.Errorf("Expected 2 tracked jobs, got %d", tr.Len())
	}
	for _, o := range remote.opts {
		if diff := cmp.Diff(opts, o); diff != "" {
			t.Errorf("options not passed through (-want +got):\n%s", diff)
		}
	}
	if results[0].Handle.Kind != KindTest || results[0].Handle.Name != "a" {
		t.Errorf("unexpected handle %+v", results[0].Handle)
	}
}

func TestLaunchSuiteWithoutFanOut(t *testing.T) {
	remote := newFakeRemote()
	remote.addSuite(5, "smoke", remote.addTest(11, "a"), remote.addTest(12, "b"))
	tr := New()
	c := NewCoordinator(remote, tr, nil)

	results := c.Launch(context.Background(), []Target{{KindSuite, 5}}, LaunchOptions{Follow: true})

	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("Expected a single successful suite launch, got %+v", results)
	}
	if diff := cmp.Diff([]int{5}, remote.launched); diff != "" {
		t.Errorf("launched (-want +got):\n%s", diff)
	}
	if results[0].Handle.Kind != KindSuite {
		t.Errorf("handle kind = %v, want suite", results[0].Handle.Kind)
	}
}

func TestLaunchWithoutFollowDoesNotTrack(t *testing.T) {
	remote := newFakeRemote()
	remote.addTest(1, "login")
	tr := New()
	c := NewCoordinator(remote, tr, nil)

	results := c.Launch(context.Background(), []Target{{KindTest, 1}}, LaunchOptions{})
	if Failed(results) {
		t.Fatalf("unexpected failure: %v", results[0].Err)
	}
	if results[0].Handle.JobID != "job-test-1" {
		t.Errorf("JobID = %q", results[0].Handle.JobID)
	}
	if tr.Len() != 0 {
		t.Errorf("Expected nothing tracked without follow, got %d", tr.Len())
	}
}

func TestLaunchFanOutUnknownSuite(t *testing.T) {
	c := NewCoordinator(newFakeRemote(), New(), nil)

	results := c.Launch(context.Background(), []Target{{KindSuite, 99}}, LaunchOptions{FanOut: true})
	if len(results) != 1 || !errors.Is(results[0].Err, ErrNotFound) {
		t.Fatalf("Expected a single not-found result, got %+v", results)
	}
	if results[0].Parent != nil {
		t.Error("Suite-level failure should not have a parent")
	}
}
