package datatrue

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type triggerResponse struct {
	JobID string `json:"job_id"`
}

// Run triggers a run of the test or suite and returns the job ID to poll.
func (c *Client) Run(ctx context.Context, kind ResourceType, id int, opts RunOptions) (string, error) {
	req, err := c.ciRequest(ctx, http.MethodPost, fmt.Sprintf("/%s/%d/trigger", kind, id), opts)
	if err != nil {
		return "", err
	}
	var resp triggerResponse
	if err := c.do(c.http, req, &resp); err != nil {
		return "", fmt.Errorf("failed to run %s %d: %w", kind, id, err)
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("failed to run %s %d: response carried no job id", kind, id)
	}
	return resp.JobID, nil
}

// JobStatus fetches the current status of a job. It makes exactly one attempt.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	req, err := c.ciRequest(ctx, http.MethodGet, "/job_status/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}
	var status JobStatus
	if err := c.do(c.statusHTTP, req, &status); err != nil {
		return nil, fmt.Errorf("failed to get status of job %s: %w", jobID, err)
	}
	return &status, nil
}
