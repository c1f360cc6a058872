package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

const (
	// DefaultMaxAttempts is used when a caller passes maxAttempts <= 0
	DefaultMaxAttempts = 3

	transientBackoff = 3000 * time.Millisecond
	defaultBackoff   = 1000 * time.Millisecond
)

// RequestOptions describes one outbound call; Method and Body are never altered
type RequestOptions struct {
	Method string
	Header http.Header
	Body   []byte
	Query  map[string]string
}

// Response is a successful reply. Data holds the decoded body when the
// server declared JSON; Text holds the raw body otherwise.
type Response struct {
	StatusCode  int
	ContentType string
	Data        interface{}
	Text        string
	raw         []byte
}

// IsJSON reports whether the body was decoded as JSON
func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType, "application/json")
}

// Decode unmarshals the raw body into v
func (r *Response) Decode(v interface{}) error {
	if len(r.raw) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.raw, v)
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client performs calls against the remote session service with bounded
// retry and linearly growing backoff. Attempts run sequentially.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	sleep       SleepFunc
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxAttempts sets the default attempt cap
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithSleep replaces the backoff wait, used by tests to record delays
func WithSleep(fn SleepFunc) ClientOption {
	return func(c *Client) { c.sleep = fn }
}

// NewClient creates a client rooted at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	// Same-origin credentials: cookies set by the service are replayed.
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Jar: jar},
		maxAttempts: DefaultMaxAttempts,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call performs endpoint with up to maxAttempts attempts. maxAttempts <= 0
// uses the client default. A started attempt always runs to completion;
// ctx is only consulted between attempts.
func (c *Client) Call(ctx context.Context, endpoint string, opts RequestOptions, maxAttempts int) (*Response, error) {
	if maxAttempts <= 0 {
		maxAttempts = c.maxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.attempt(ctx, endpoint, opts, attempt, maxAttempts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		LogWarn("Request %s attempt %d/%d failed: %v", endpoint, attempt, maxAttempts, err)

		if attempt == maxAttempts {
			break
		}
		if err := c.sleep(ctx, backoff(err, attempt)); err != nil {
			return nil, fmt.Errorf("request %s aborted: %w", endpoint, err)
		}
	}
	return nil, classify(lastErr)
}

func (c *Client) attempt(ctx context.Context, endpoint string, opts RequestOptions, attempt, attempts int) (*Response, error) {
	req, err := c.newRequest(context.WithoutCancel(ctx), endpoint, opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadGateway {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &TransientServerError{Endpoint: endpoint, Attempt: attempt, Attempts: attempts}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{Endpoint: endpoint, Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	out := &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		raw:         body,
	}
	if out.IsJSON() {
		if len(body) > 0 {
			if err := json.Unmarshal(body, &out.Data); err != nil {
				return nil, &DecodeError{Endpoint: endpoint, Err: err}
			}
		}
	} else {
		out.Text = string(body)
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, endpoint string, opts RequestOptions) (*http.Request, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if len(opts.Query) > 0 {
		q := req.URL.Query()
		for k, v := range opts.Query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("Accept", "application/json")
	for k, values := range opts.Header {
		req.Header.Del(k)
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// backoff returns the wait before the next attempt; attempt starts at 1
func backoff(err error, attempt int) time.Duration {
	var transient *TransientServerError
	if errors.As(err, &transient) {
		return transientBackoff * time.Duration(attempt)
	}
	return defaultBackoff * time.Duration(attempt)
}

// classify maps the last attempt error onto the user-facing taxonomy
func classify(err error) error {
	var transient *TransientServerError
	if errors.As(err, &transient) {
		return &exhaustedError{kind: ErrServerUnavailable, last: err}
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return &exhaustedError{kind: ErrNetworkUnavailable, last: err}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
