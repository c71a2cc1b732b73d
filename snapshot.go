package propwatch

import "context"

// SnapshotStore archives raw HTML for offline inspection. Archiving is
// best-effort: a failed write is logged by callers, never fatal to a run.
type SnapshotStore interface {
	// SavePage archives a listing feed page.
	SavePage(ctx context.Context, location string, page int, html string) error

	// SaveDetail archives a listing detail page.
	SaveDetail(ctx context.Context, listingID string, html string) error
}
