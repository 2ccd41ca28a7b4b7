// Package cosylab is the HTTP transport shared by the FlavorDB and RecipeDB
// clients: API key header, per-request timeout, client-side rate limiting and
// exponential backoff on transient failures.
package cosylab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrClientStatus wraps 4xx responses. They are not retried.
	ErrClientStatus = errors.New("client error response")
	// ErrRetriesExhausted is returned once every retry has failed.
	ErrRetriesExhausted = errors.New("max retries exceeded")
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	APIKey            string
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerSecond float64
}

// DefaultOptions match the provider defaults in the service config.
func DefaultOptions() Options {
	return Options{
		Timeout:           10 * time.Second,
		MaxRetries:        3,
		RetryDelay:        time.Second,
		RequestsPerSecond: 5,
	}
}

type Client struct {
	name       string
	baseURL    string
	httpClient doer
	opts       Options
	limiter    *rate.Limiter
}

// NewClient builds a client for the API rooted at baseURL. name is used in
// log lines only.
func NewClient(name, baseURL string, httpClient doer, opts Options) *Client {
	c := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		opts:       opts,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// Get calls endpoint with params and decodes the JSON body, which may be an
// object or a list.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (any, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		v, retry, err := c.do(ctx, endpoint, params)
		if err == nil {
			return v, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err

		if attempt >= c.opts.MaxRetries {
			slog.Warn("PROVIDER: [COSYLAB API FALLBACK] Max retries exceeded",
				"api", c.name,
				"endpoint", endpoint,
				"retries", c.opts.MaxRetries,
				"error", lastErr,
			)
			return nil, fmt.Errorf("%s %s: %w: %w", c.name, endpoint, ErrRetriesExhausted, lastErr)
		}

		wait := c.opts.RetryDelay * time.Duration(1<<attempt)
		slog.Info("PROVIDER: Retrying request",
			"api", c.name,
			"endpoint", endpoint,
			"attempt", attempt+1,
			"max_retries", c.opts.MaxRetries,
			"wait", wait,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Available reports whether a cheap probe request succeeds.
func (c *Client) Available(ctx context.Context, endpoint string, params url.Values) bool {
	_, _, err := c.do(ctx, endpoint, params)
	if err != nil {
		slog.Error("PROVIDER: Availability check failed", "api", c.name, "error", err)
		return false
	}
	return true
}

// do performs one attempt. retry reports whether the failure is transient.
func (c *Client) do(ctx context.Context, endpoint string, params url.Values) (v any, retry bool, err error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, false, err
		}
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("x-api-key", c.opts.APIKey)
	}

	slog.Debug("PROVIDER: Request", "api", c.name, "url", u)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transient(err), fmt.Errorf("%s %s: %w", c.name, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("%s %s: %w: %s", c.name, endpoint, ErrClientStatus, resp.Status)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%s %s: server error: %s", c.name, endpoint, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%s %s: failed to read body: %w", c.name, endpoint, err)
	}

	if err := json.Unmarshal(body, &v); err != nil {
		return nil, false, fmt.Errorf("%s %s: failed to decode response: %w", c.name, endpoint, err)
	}
	return v, false, nil
}

// transient reports whether a transport error is worth retrying. Timeouts and
// connection failures are; caller cancellation is not.
func transient(err error) bool {
	return !errors.Is(err, context.Canceled)
}
