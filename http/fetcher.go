// Package http provides the HTTP-based implementation of
// propwatch.Fetcher used against listing portals.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/propwatch/propwatch"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// DefaultUserAgent is a desktop browser signature. Portals behind
// anti-bot vendors serve challenge pages to obvious non-browser agents,
// so the default mimics a real one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Ensure Fetcher implements propwatch.Fetcher at compile time.
var _ propwatch.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content over plain HTTP with browser-like
// request headers. It retries transient failures (network errors and
// 5xx responses) at the transport level; everything above it sees a
// single attempt.
type Fetcher struct {
	client     *http.Client
	timeout    time.Duration
	userAgent  string
	retries    int
	retryDelay time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRetries enables up to n retries of transient failures, waiting
// delay between attempts.
func WithRetries(n int, delay time.Duration) Option {
	return func(f *Fetcher) {
		f.retries = n
		f.retryDelay = delay
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the HTML content from the given URL. Non-2xx
// responses are reported with code EUNAVAILABLE.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		body, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

// fetchOnce performs a single request. The second return reports
// whether the failure is worth retrying.
func (f *Fetcher) fetchOnce(ctx context.Context, url string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := propwatch.Errorf(propwatch.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
		return "", resp.StatusCode >= 500, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}

	return string(body), true, nil
}

// Close releases resources. For the HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}
