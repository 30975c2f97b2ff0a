// Package apiclient provides the single configured request pipeline shared by
// every subsystem: base URL, bearer-token injection from the session, and a
// global 401 handler that clears the session and triggers the login redirect.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clearskies/clearskies/internal/resilience"
	"github.com/clearskies/clearskies/internal/session"
)

// Client errors.
var (
	// ErrUnauthorized is returned after the global 401 handler has run.
	ErrUnauthorized = errors.New("unauthorized")
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds configuration for the shared client.
type Config struct {
	// BaseURL is the backend base URL.
	BaseURL string

	// Session supplies the bearer token and absorbs 401 clears.
	Session *session.Session

	// HTTPClient is the transport. If nil, a resilient client is created.
	HTTPClient HTTPDoer

	// Timeout for individual requests when the default transport is used
	// (default: 10s).
	Timeout time.Duration

	// OnUnauthorized is invoked after a 401 has cleared the session. This is
	// the navigation seam: the dashboard shell redirects to the login route
	// matching the active account kind.
	OnUnauthorized func(kind session.AccountKind)

	// Logger for request-level events.
	Logger zerolog.Logger
}

// Client is the shared backend HTTP client.
type Client struct {
	baseURL        string
	sess           *session.Session
	httpClient     HTTPDoer
	onUnauthorized func(kind session.AccountKind)
	logger         zerolog.Logger
}

// New creates a new shared client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:    "dashboard-backend",
			Timeout: timeout,
		})
	}

	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		sess:           cfg.Session,
		httpClient:     httpClient,
		onUnauthorized: cfg.OnUnauthorized,
		logger:         cfg.Logger,
	}
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	return c.do(req, out)
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.sess != nil {
		if token, err := c.sess.Token(); err == nil {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(req)
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// handleUnauthorized is the cross-cutting 401 path: every token and cached
// profile is cleared regardless of which subsystem triggered the request, then
// the redirect hook fires. Requests already in flight with the old token are
// left to fail on their own and take this same path.
func (c *Client) handleUnauthorized(req *http.Request) {
	c.logger.Warn().
		Str("path", req.URL.Path).
		Msg("received 401, clearing session")

	if c.sess == nil {
		return
	}

	kind := c.sess.Kind()
	c.sess.Clear()

	if c.onUnauthorized != nil {
		c.onUnauthorized(kind)
	}
}
