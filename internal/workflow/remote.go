package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteEngine drives the workflow endpoints of another storeops server.
type RemoteEngine struct {
	baseURL string
	client  *http.Client
	retry   *RetryPolicy
}

// NewRemoteEngine creates a client for the server at baseURL.
func NewRemoteEngine(baseURL string, timeout time.Duration) *RemoteEngine {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		retry:   DefaultRetryPolicy(),
	}
}

// WithRetry replaces the retry policy.
func (e *RemoteEngine) WithRetry(p *RetryPolicy) *RemoteEngine {
	e.retry = p
	return e
}

type startResponse struct {
	Handle string            `json:"execution_arn"`
	Input  map[string]string `json:"input"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (e *RemoteEngine) Start(ctx context.Context, input map[string]string) (string, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("encode input: %w", err)
	}
	var resp startResponse
	err = e.retry.Execute(ctx, func() error {
		return e.do(ctx, http.MethodPost, "/workflow/start", body, &resp)
	})
	if err != nil {
		return "", fmt.Errorf("start workflow: %w", err)
	}
	if resp.Handle == "" {
		return "", fmt.Errorf("start workflow: %w: empty execution handle", ErrUnavailable)
	}
	return resp.Handle, nil
}

func (e *RemoteEngine) Describe(ctx context.Context, handle string) (*Execution, error) {
	path := "/workflow/status?execution_arn=" + url.QueryEscape(handle)
	var exec Execution
	err := e.retry.Execute(ctx, func() error {
		return e.do(ctx, http.MethodGet, path, nil, &exec)
	})
	if err != nil {
		return nil, fmt.Errorf("describe workflow: %w", err)
	}
	return &exec, nil
}

// do performs one request. Transport failures and 5xx responses are
// retryable and map to ErrUnavailable; other non-2xx responses are final.
func (e *RemoteEngine) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, reader)
	if err != nil {
		return Permanent(fmt.Errorf("build request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Permanent(ErrExecutionNotFound)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrUnavailable, remoteMessage(resp.StatusCode, data))
	case resp.StatusCode >= 300:
		return Permanent(fmt.Errorf("remote error: %s", remoteMessage(resp.StatusCode, data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func remoteMessage(status int, data []byte) string {
	var er errorResponse
	if json.Unmarshal(data, &er) == nil && er.Error != "" {
		return fmt.Sprintf("status %d: %s", status, er.Error)
	}
	return fmt.Sprintf("status %d", status)
}
