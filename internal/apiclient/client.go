package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Client provides HTTP access to the daemon API.
type Client struct {
	base   string
	token  string
	client *http.Client
}

// New builds a client for the daemon API at the given address. A bare
// host:port is promoted to http://.
func New(base, token string) (*Client, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, errors.New("apiclient: base address is required")
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base address: %w", err)
	}
	return &Client{
		base:   strings.TrimRight(parsed.String(), "/"),
		token:  strings.TrimSpace(token),
		client: &http.Client{},
	}, nil
}

// Base returns the resolved base URL.
func (c *Client) Base() string { return c.base }

// Healthz probes daemon liveness.
func (c *Client) Healthz(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/api/healthz", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves daemon runtime information.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var resp DaemonStatus
	if err := c.get(ctx, "/api/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs lists journaled runs, optionally filtered by status.
func (c *Client) Jobs(ctx context.Context, status string, limit int) (*JobListResponse, error) {
	query := url.Values{}
	if status = strings.TrimSpace(status); status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/jobs"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var resp JobListResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Job retrieves a single journaled run by id.
func (c *Client) Job(ctx context.Context, id int64) (*JobEntryResponse, error) {
	var resp JobEntryResponse
	if err := c.get(ctx, fmt.Sprintf("/api/jobs/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification asks the daemon to publish a test notification.
func (c *Client) TestNotification(ctx context.Context) (*NotifyTestResponse, error) {
	var resp NotifyTestResponse
	if err := c.post(ctx, "/api/notify/test", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Process submits a raw direct-request payload and returns the rendered
// result. A non-200 status is reported inside the result, not as an error.
func (c *Client) Process(ctx context.Context, payload []byte) (*FingeringResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/fingerings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: submit score: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("apiclient: read response: %w", err)
	}

	result := FingeringResult{StatusCode: httpResp.StatusCode}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("apiclient: decode response: %w", err)
		}
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("apiclient: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("apiclient: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("apiclient: %s %s: %s", method, path, errorMessage(resp.StatusCode, payload))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func errorMessage(status int, payload []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && strings.TrimSpace(body.Error) != "" {
		return body.Error
	}
	return http.StatusText(status)
}

// Ping reports whether the daemon API answers its health probe.
func (c *Client) Ping(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := c.Healthz(probeCtx)
	return err
}

// IsUnavailable reports whether the error indicates no daemon is listening.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENOENT) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
