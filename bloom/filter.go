// Package bloom provides a probabilistic seen-ID cache used by the
// harvester to skip store lookups for listings that have definitely
// never been observed.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter keyed by listing ID.
//
// Test returning false means the ID was never added; true only means it
// might have been. Callers must confirm positives against the store.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected IDs with the given
// false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records a listing ID.
func (f *Filter) Add(id string) {
	f.f.AddString(id)
}

// Test returns true if the ID might have been added.
// False positives are possible; false negatives are not.
func (f *Filter) Test(id string) bool {
	return f.f.TestString(id)
}

// EstimatedCount returns the approximate number of IDs in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
