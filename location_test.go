package propwatch_test

import (
	"testing"

	"github.com/propwatch/propwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationContext_Label(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lc   propwatch.LocationContext
		want string
	}{
		{name: "city and sublocation", lc: propwatch.LocationContext{City: "Dubai", Sublocation: "Dubai Marina"}, want: "Dubai/Dubai Marina"},
		{name: "city only", lc: propwatch.LocationContext{City: "Dubai"}, want: "Dubai"},
		{name: "sublocation only", lc: propwatch.LocationContext{Sublocation: "Dubai Marina"}, want: "Dubai Marina"},
		{name: "country-wide", lc: propwatch.LocationContext{}, want: "all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.lc.Label())
		})
	}
}

func TestLocationContext_PageURL(t *testing.T) {
	t.Parallel()

	lc := propwatch.LocationContext{
		URLTemplate: "https://example.com/for-sale/property/dubai/page-%d/?sort=date_desc",
	}
	assert.Equal(t,
		"https://example.com/for-sale/property/dubai/page-3/?sort=date_desc",
		lc.PageURL(3))
}

func TestLocationContext_Validate(t *testing.T) {
	t.Parallel()

	require.Error(t, propwatch.LocationContext{}.Validate())
	require.Error(t, propwatch.LocationContext{URLTemplate: "https://example.com/page"}.Validate())
	require.NoError(t, propwatch.LocationContext{URLTemplate: "https://example.com/page-%d/"}.Validate())
}
