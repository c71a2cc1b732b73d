package mock

import "github.com/propwatch/propwatch"

var _ propwatch.ListingExtractor = (*ListingExtractor)(nil)

type ListingExtractor struct {
	ExtractListingsFn func(html string) ([]propwatch.RawListing, error)
}

func (e *ListingExtractor) ExtractListings(html string) ([]propwatch.RawListing, error) {
	return e.ExtractListingsFn(html)
}

var _ propwatch.DetailExtractor = (*DetailExtractor)(nil)

type DetailExtractor struct {
	ExtractDetailFn func(html string) (map[string]any, error)
}

func (e *DetailExtractor) ExtractDetail(html string) (map[string]any, error) {
	return e.ExtractDetailFn(html)
}
