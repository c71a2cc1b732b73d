package propwatch

import "context"

// Fetcher retrieves page bodies over the network. Implementations own
// the request timeout and any transport-level retry; callers get no
// retry beyond that.
type Fetcher interface {
	// Fetch returns the response body for the URL. Non-2xx responses are
	// reported as an error with code EUNAVAILABLE.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (body string, err error)

	// Close releases transport resources.
	Close() error
}
