package propwatch

import "encoding/json"

// RawListing is one structured item lifted from a listing feed page,
// before identity resolution.
type RawListing struct {
	// Position is the 1-based position within the page, as reported by
	// the feed itself.
	Position int

	// URL is the listing's detail URL, if present.
	URL string

	// Price is the asking price, 0 when unknown.
	Price float64

	// Raw is the item as extracted, kept verbatim for storage.
	Raw json.RawMessage
}

// ListingExtractor lifts structured items from a listing feed page.
// Implementations must tolerate well-formed-but-unexpected HTML: a
// sparse or empty result is fine, a panic is not.
type ListingExtractor interface {
	// ExtractListings returns the items found on the page in page order.
	// An empty slice with a nil error means the page held no items.
	ExtractListings(html string) ([]RawListing, error)
}

// DetailExtractor lifts structured fields from a listing detail page.
// The result may be sparse or empty; errors are reserved for inputs the
// extractor could not process at all.
type DetailExtractor interface {
	ExtractDetail(html string) (map[string]any, error)
}
