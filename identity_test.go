package propwatch_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/propwatch/propwatch"
	"github.com/stretchr/testify/assert"
)

func TestResolveListingID_natural_ID_from_detail_URL(t *testing.T) {
	t.Parallel()

	id := propwatch.ResolveListingID("https://example.com/property/details-8741253.html", nil)
	assert.Equal(t, "8741253", id)
}

func TestResolveListingID_hash_fallback_for_URL_without_pattern(t *testing.T) {
	t.Parallel()

	id := propwatch.ResolveListingID("https://example.com/property/some-villa", nil)
	assert.True(t, strings.HasPrefix(id, propwatch.SyntheticIDPrefix))
}

func TestResolveListingID_hash_fallback_uses_raw_item_when_URL_absent(t *testing.T) {
	t.Parallel()

	raw := json.RawMessage(`{"name":"2BR apartment","position":4}`)

	id := propwatch.ResolveListingID("", raw)
	assert.True(t, strings.HasPrefix(id, propwatch.SyntheticIDPrefix))

	other := propwatch.ResolveListingID("", json.RawMessage(`{"name":"3BR apartment"}`))
	assert.NotEqual(t, id, other)
}

func TestResolveListingID_deterministic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		raw  json.RawMessage
	}{
		{name: "natural", url: "https://example.com/details-42.html"},
		{name: "synthetic from URL", url: "https://example.com/no-id-here"},
		{name: "synthetic from raw", raw: json.RawMessage(`{"k":"v"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := propwatch.ResolveListingID(tt.url, tt.raw)
			b := propwatch.ResolveListingID(tt.url, tt.raw)
			assert.Equal(t, a, b)
		})
	}
}

func TestResolveListingID_natural_and_synthetic_namespaces_disjoint(t *testing.T) {
	t.Parallel()

	natural := propwatch.ResolveListingID("https://example.com/details-123.html", nil)
	synthetic := propwatch.ResolveListingID("https://example.com/other", nil)

	assert.False(t, strings.HasPrefix(natural, propwatch.SyntheticIDPrefix))
	assert.True(t, strings.HasPrefix(synthetic, propwatch.SyntheticIDPrefix))
}

func TestResolveListingID_no_collisions_across_corpus(t *testing.T) {
	t.Parallel()

	seen := make(map[string]string)
	for i := 0; i < 5000; i++ {
		url := fmt.Sprintf("https://example.com/listing/%d/view", i)
		id := propwatch.ResolveListingID(url, nil)
		prev, dup := seen[id]
		assert.False(t, dup, "ID %s for %s collides with %s", id, url, prev)
		seen[id] = url
	}
}

func TestResolveListingID_truncates_long_input(t *testing.T) {
	t.Parallel()

	// Inputs identical in the first 256 bytes hash to the same ID.
	base := strings.Repeat("a", 256)
	a := propwatch.ResolveListingID(base+"-tail-one", nil)
	b := propwatch.ResolveListingID(base+"-tail-two", nil)
	assert.Equal(t, a, b)
}
