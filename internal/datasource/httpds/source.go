// Package httpds reads source extracts over HTTP. Each file id is resolved
// against a base URL and fetched with GET; transient failures (transport
// errors, 429 and 5xx) are retried with exponential backoff.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"warehouse/internal/table"
)

// Config configures a Source. Zero values get defaults: Timeout 30s,
// InitialBackoff 200ms, MaxBackoff 5s. MaxRetries=0 means a single attempt.
type Config struct {
	BaseURL string

	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// InsecureSkipVerify disables TLS verification. Ignored when Transport
	// is set.
	InsecureSkipVerify bool

	// Headers are sent with every request.
	Headers http.Header

	Transport http.RoundTripper
}

// Source fetches extracts from BaseURL/<fileID>.
type Source struct {
	base           *url.URL
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	headers        http.Header

	// wait blocks for a backoff interval; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// New validates cfg and returns a Source.
func New(cfg Config) (*Source, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("httpds: base url must not be empty")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("httpds: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("httpds: unsupported scheme %q", base.Scheme)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in
			},
		}
	}

	return &Source{
		base:           base,
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		headers:        cfg.Headers.Clone(),
		wait:           waitContext,
	}, nil
}

// URL returns the address a file id resolves to.
func (s *Source) URL(fileID string) string {
	ref := &url.URL{Path: strings.TrimLeft(fileID, "/")}
	return s.base.ResolveReference(ref).String()
}

// Open GETs the extract. 404 and 410 map to table.ErrNotFound; any other
// non-2xx status maps to table.ErrIO.
func (s *Source) Open(ctx context.Context, fileID string) (io.ReadCloser, error) {
	u := s.URL(fileID)
	resp, err := s.get(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, table.Wrap(table.ErrIO, "GET "+u, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		resp.Body.Close()
		return nil, table.Errorf(table.ErrNotFound, "GET "+u, "status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, table.Errorf(table.ErrIO, "GET "+u, "status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (s *Source) get(ctx context.Context, u string) (*http.Response, error) {
	attempts := s.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		for k, vs := range s.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			if !isRetryableStatus(resp.StatusCode) {
				return resp, nil
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
		}

		if attempt+1 >= attempts {
			break
		}
		if err := s.wait(ctx, backoffDuration(s.initialBackoff, attempt, s.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

// isRetryableStatus treats 429 and 5xx as transient.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns initial*2^attempt clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		return min(initial, max)
	}
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
