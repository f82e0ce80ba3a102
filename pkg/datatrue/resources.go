package datatrue

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) GetTest(ctx context.Context, id int) (*Test, error) {
	req, err := c.managementRequest(ctx, http.MethodGet, fmt.Sprintf("/tests/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var test Test
	if err := c.do(c.http, req, &test); err != nil {
		return nil, fmt.Errorf("failed to get test %d: %w", id, err)
	}
	return &test, nil
}

func (c *Client) GetSuite(ctx context.Context, id int) (*Suite, error) {
	req, err := c.managementRequest(ctx, http.MethodGet, fmt.Sprintf("/suites/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var suite Suite
	if err := c.do(c.http, req, &suite); err != nil {
		return nil, fmt.Errorf("failed to get suite %d: %w", id, err)
	}
	return &suite, nil
}

// SuiteTests lists the tests of a suite in the order the suite runs them.
func (c *Client) SuiteTests(ctx context.Context, suiteID int) ([]Test, error) {
	req, err := c.managementRequest(ctx, http.MethodGet, fmt.Sprintf("/suites/%d/tests", suiteID), nil)
	if err != nil {
		return nil, err
	}
	var tests []Test
	if err := c.do(c.http, req, &tests); err != nil {
		return nil, fmt.Errorf("failed to list tests for suite %d: %w", suiteID, err)
	}
	return tests, nil
}
