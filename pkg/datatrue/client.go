package datatrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

const DefaultEndpoint = "https://datatrue.com"

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("not found")

// APIError is returned for any other non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected http %d status code from datatrue: %s", e.StatusCode, e.Body)
}

type Options struct {
	Endpoint     string
	UserToken    string
	AccountToken string
	// Timeout bounds every single HTTP request.
	Timeout time.Duration
	// RetryMax applies to lookups and triggers. Status requests are never retried.
	RetryMax int
	Logger   *logrus.Entry
}

type Client struct {
	endpoint     string
	userToken    string
	accountToken string
	http         *retryablehttp.Client
	statusHTTP   *retryablehttp.Client
}

func NewClient(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.UserToken == "" && opts.AccountToken == "" {
		return nil, fmt.Errorf("a user token or an account token is required")
	}

	newHTTP := func(retryMax int) *retryablehttp.Client {
		c := retryablehttp.NewClient()
		c.RetryMax = retryMax
		c.HTTPClient.Timeout = opts.Timeout
		c.Logger = logAdapter{log: opts.Logger.WithField("component", "datatrue")}
		return c
	}

	return &Client{
		endpoint:     strings.TrimRight(opts.Endpoint, "/"),
		userToken:    opts.UserToken,
		accountToken: opts.AccountToken,
		http:         newHTTP(opts.RetryMax),
		statusHTTP:   newHTTP(0),
	}, nil
}

// Endpoint returns the API base URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) managementRequest(ctx context.Context, method, path string, body any) (*retryablehttp.Request, error) {
	req, err := c.newRequest(ctx, method, c.endpoint+"/management_api/v1"+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token token="+c.userToken)
	return req, nil
}

func (c *Client) ciRequest(ctx context.Context, method, path string, body any) (*retryablehttp.Request, error) {
	req, err := c.newRequest(ctx, method, c.endpoint+"/ci_api"+path, body)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("api_key", c.accountToken)
	req.URL.RawQuery = q.Encode()
	return req, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body any) (*retryablehttp.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(hc *retryablehttp.Client, req *retryablehttp.Request, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}
