package datatrue

// ResourceType selects the runnable resource kind in API paths.
type ResourceType string

const (
	ResourceTest  ResourceType = "tests"
	ResourceSuite ResourceType = "suites"
)

type Test struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	TestType int    `json:"test_type,omitempty"`
}

type Suite struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Options struct {
		SuiteType string `json:"suite_type,omitempty"`
	} `json:"options"`
}

// RunOptions are sent with a trigger request.
type RunOptions struct {
	EmailUsers []int             `json:"email_users,omitempty"`
	Variables  map[string]string `json:"variables,omitempty"`
}

// JobStatus is the payload of the job status endpoint. Status is "queued", "running" or a
// finished marker such as "completed".
type JobStatus struct {
	Status   string    `json:"status"`
	Progress *Progress `json:"progress,omitempty"`
}

type Progress struct {
	Percentage int            `json:"percentage"`
	Tests      []TestProgress `json:"tests,omitempty"`
}

// TestProgress is the state of one test within a suite job.
type TestProgress struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}
