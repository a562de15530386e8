// Package fetch retrieves report spreadsheets over HTTP or from local files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 2 * time.Minute

	// DefaultRateLimit is requests per second against the report server.
	DefaultRateLimit = 2.0

	// MaxReportSize caps a downloaded report at 256MB.
	MaxReportSize = 256 << 20
)

// ErrNetworkError indicates a network connectivity issue.
var ErrNetworkError = errors.New("network error fetching report")

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
}

// Client is a rate-limited report fetcher.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit sets the maximum requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new report fetcher.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		userAgent:  "repometrics",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the bytes behind source: an http(s) URL, a file:// URL, or a local path.
func (c *Client) Fetch(ctx context.Context, source string) ([]byte, error) {
	if isHTTP(source) {
		return c.get(ctx, source)
	}
	path := strings.TrimPrefix(source, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxReportSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}
	if len(data) > MaxReportSize {
		return nil, fmt.Errorf("report %s exceeds %d bytes", u, MaxReportSize)
	}
	return data, nil
}

func isHTTP(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ReportURL joins a server base (URL or directory) with a report file name.
func ReportURL(server, name string) (string, error) {
	if !isHTTP(server) {
		return strings.TrimSuffix(server, "/") + "/" + name, nil
	}
	base, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parsing server URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref, err := url.Parse(name)
	if err != nil {
		return "", fmt.Errorf("parsing report name: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// EditorReport returns the file name of a context's editor report.
func EditorReport(context string) string {
	return context + "_editor.xlsx"
}

// MetadataReport returns the file name of a context's metadata report.
func MetadataReport(context string) string {
	return context + "_metadata.xlsx"
}
