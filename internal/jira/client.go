// Package jira is a thin client for the subset of the JIRA REST API the
// backlog commands use: JQL search, issue reads, field discovery, issue
// updates, comments, and agile ranking.
//
// Responses are kept as raw JSON documents and read through gjson; request
// bodies are assembled with sjson. JIRA can be flaky, so single-issue reads
// and writes retry a few times before failing.
package jira

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/tidwall/sjson"
)

const defaultRetryAttempts = 5

// Client talks to one JIRA instance using a personal access token.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client

	// retryAttempts bounds the retry loop on flaky calls.
	retryAttempts uint
	// retryDelay is the base delay between attempts.
	retryDelay time.Duration
}

// NewClient creates a client for the given server URL and token.
func NewClient(baseURL, token string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("jira URL is required")
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("jira token is required (set JIRA_TOKEN)")
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		httpc:         &http.Client{Timeout: 30 * time.Second},
		retryAttempts: defaultRetryAttempts,
		retryDelay:    500 * time.Millisecond,
	}, nil
}

// APIError is a non-2xx response from JIRA.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("jira: HTTP %d: %s", e.StatusCode, body)
}

// do performs one request and returns the response body. Non-2xx statuses
// become *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// withRetry runs fn up to retryAttempts times. Context cancellation is not
// retried.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Attempts(c.retryAttempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return ctx.Err() == nil }),
	)
}

// Issue fetches a single issue by key, retrying on flaky responses.
func (c *Client) Issue(ctx context.Context, key string) (*Issue, error) {
	var data []byte
	err := c.withRetry(ctx, func() error {
		var err error
		data, err = c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(key), nil, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching issue %s: %w", key, err)
	}
	return ParseIssue(string(data)), nil
}

// Update applies a fields update to an issue, retrying on flaky responses.
func (c *Client) Update(ctx context.Context, key string, fields map[string]any) error {
	body := []byte(`{}`)
	var err error
	for name, value := range fields {
		body, err = sjson.SetBytes(body, "fields."+name, value)
		if err != nil {
			return fmt.Errorf("encoding field %q: %w", name, err)
		}
	}

	err = c.withRetry(ctx, func() error {
		_, err := c.do(ctx, http.MethodPut, "/rest/api/2/issue/"+url.PathEscape(key), nil, body)
		return err
	})
	if err != nil {
		return fmt.Errorf("updating issue %s: %w", key, err)
	}
	return nil
}

// AddComment posts a comment on an issue.
func (c *Client) AddComment(ctx context.Context, key, text string) error {
	body, err := sjson.SetBytes([]byte(`{}`), "body", text)
	if err != nil {
		return fmt.Errorf("encoding comment: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, "/rest/api/2/issue/"+url.PathEscape(key)+"/comment", nil, body); err != nil {
		return fmt.Errorf("commenting on %s: %w", key, err)
	}
	return nil
}

// RankBefore moves an issue directly above another in the backlog.
func (c *Client) RankBefore(ctx context.Context, key, beforeKey string) error {
	return c.rank(ctx, key, "rankBeforeIssue", beforeKey)
}

// RankAfter moves an issue directly below another in the backlog.
func (c *Client) RankAfter(ctx context.Context, key, afterKey string) error {
	return c.rank(ctx, key, "rankAfterIssue", afterKey)
}

func (c *Client) rank(ctx context.Context, key, anchorField, anchorKey string) error {
	body, err := sjson.SetBytes([]byte(`{}`), "issues", []string{key})
	if err == nil {
		body, err = sjson.SetBytes(body, anchorField, anchorKey)
	}
	if err != nil {
		return fmt.Errorf("encoding rank request: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPut, "/rest/agile/1.0/issue/rank", nil, body); err != nil {
		return fmt.Errorf("ranking %s relative to %s: %w", key, anchorKey, err)
	}
	return nil
}
