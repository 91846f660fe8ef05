// Package download provides HTTP(S) downloads with the installer's
// transport policy: plain HTTP is refused for non-loopback hosts unless
// explicitly overridden, HTTPS pins a minimum TLS version, and transient
// failures are retried a bounded number of times. Trust failures never
// pass through the retry loop; they are detected after the bytes land.
package download

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultTimeout is the HTTP request timeout for artifact downloads.
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries is the number of download retries after the first attempt.
	DefaultRetries = 3
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "fpstracker-install/1.0"
)

// ErrInsecureTransport indicates a plain-HTTP URL was refused by policy.
var ErrInsecureTransport = errors.New("insecure transport refused")

// statusError marks non-200 HTTP responses. Server-side failures (5xx)
// are transient and go through the retry loop; client errors (4xx) are
// terminal.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

func (e *statusError) transient() bool {
	return e.code >= 500
}

// Client downloads URLs to files with retry logic.
type Client struct {
	client        *http.Client
	userAgent     string
	retries       int
	allowInsecure bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithRetries overrides the retry count.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = n }
}

// WithInsecureHTTP permits plain HTTP to non-loopback hosts. This maps to
// the FPS_TRACKER_ALLOW_INSECURE_HTTP override and exists for local
// integration testing against mirrors.
func WithInsecureHTTP(allow bool) Option {
	return func(c *Client) { c.allowInsecure = allow }
}

// NewClient creates a downloader. HTTPS connections require TLS 1.2 or
// newer.
func NewClient(opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}

	c := &Client{
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		userAgent: DefaultUserAgent,
		retries:   DefaultRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		// Allow up to 10 redirects
		if len(via) >= 10 {
			return fmt.Errorf("too many redirects")
		}
		// Redirects must honor the same transport policy
		return checkTransport(req.URL, c.allowInsecure)
	}
	return c
}

// checkTransport enforces the scheme policy for a URL.
func checkTransport(u *url.URL, allowInsecure bool) error {
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if allowInsecure || isLoopback(u.Hostname()) {
			return nil
		}
		return fmt.Errorf("%w: %s (set %s=1 to override for testing)",
			ErrInsecureTransport, u.Redacted(), "FPS_TRACKER_ALLOW_INSECURE_HTTP")
	default:
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
}

// isLoopback reports whether the host is localhost or a loopback address.
func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Fetch downloads a URL to a file path, creating parent directories.
// Transport failures and 5xx responses are retried with exponential
// backoff; policy refusals and 4xx responses are terminal.
func (c *Client) Fetch(ctx context.Context, rawURL, destPath string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if err := checkTransport(u, c.allowInsecure); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.fetchOnce(ctx, rawURL, destPath)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Client errors will not get better on retry; 5xx from the
		// release CDN might.
		var se *statusError
		if errors.As(err, &se) && !se.transient() {
			return fmt.Errorf("download %s: %w", rawURL, err)
		}
	}

	return fmt.Errorf("download %s failed after %d retries: %w", rawURL, c.retries, lastErr)
}

// fetchOnce performs a single download attempt with an atomic rename into
// place, so a partial download never masquerades as a complete file.
func (c *Client) fetchOnce(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// IsNotFound reports whether the error is an HTTP 404 from Fetch. The
// signature branch uses this to distinguish "release has no signing
// assets" from transport failures.
func IsNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}
