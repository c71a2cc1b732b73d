package goquery_test

import (
	"testing"

	"github.com/propwatch/propwatch"
	propwatchgoquery "github.com/propwatch/propwatch/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedPage = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Organization","name":"Feeds"}</script>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "ItemList",
  "itemListElement": [
    {
      "@type": "ListItem",
      "position": 1,
      "mainEntity": {
        "url": "https://feeds.test/property/details-8102931.html",
        "offers": [{"priceSpecification": {"price": 2500000, "priceCurrency": "AED"}}]
      }
    },
    {
      "@type": "ListItem",
      "position": 2,
      "mainEntity": {
        "url": "https://feeds.test/property/details-8102932.html",
        "offers": [{"priceSpecification": {"price": "1,850,000", "priceCurrency": "AED"}}]
      }
    }
  ]
}
</script>
</head>
<body></body>
</html>`

func TestListingExtractor_ExtractListings(t *testing.T) {
	t.Parallel()

	t.Run("extracts items in page order", func(t *testing.T) {
		t.Parallel()

		e := propwatchgoquery.NewListingExtractor()
		items, err := e.ExtractListings(feedPage)
		require.NoError(t, err)
		require.Len(t, items, 2)

		assert.Equal(t, 1, items[0].Position)
		assert.Equal(t, "https://feeds.test/property/details-8102931.html", items[0].URL)
		assert.Equal(t, 2500000.0, items[0].Price)
		assert.NotEmpty(t, items[0].Raw)

		// String-typed prices with separators are coerced.
		assert.Equal(t, 1850000.0, items[1].Price)
	})

	t.Run("tolerates trailing commas", func(t *testing.T) {
		t.Parallel()

		page := `<html><head><script type="application/ld+json">
		{
			"@type": "ItemList",
			"itemListElement": [
				{"position": 1, "mainEntity": {"url": "https://feeds.test/property/details-77.html",},},
			],
		}
		</script></head></html>`

		e := propwatchgoquery.NewListingExtractor()
		items, err := e.ExtractListings(page)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "https://feeds.test/property/details-77.html", items[0].URL)
	})

	t.Run("falls back to ItemList type when first element has no property data", func(t *testing.T) {
		t.Parallel()

		page := `<html><head><script type="application/ld+json">
		{"@type": ["BreadcrumbList", "ItemList"], "itemListElement": [{"position": 1, "name": "Dubai"}]}
		</script></head></html>`

		e := propwatchgoquery.NewListingExtractor()
		items, err := e.ExtractListings(page)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Empty(t, items[0].URL)
		assert.Zero(t, items[0].Price)
	})

	t.Run("errors when no ld+json script present", func(t *testing.T) {
		t.Parallel()

		e := propwatchgoquery.NewListingExtractor()
		_, err := e.ExtractListings("<html><body><p>Access denied</p></body></html>")
		require.Error(t, err)
		assert.Equal(t, propwatch.EINVALID, propwatch.ErrorCode(err))
	})

	t.Run("errors when no block holds an item list", func(t *testing.T) {
		t.Parallel()

		page := `<html><head><script type="application/ld+json">
		{"@type": "Organization", "name": "Feeds"}
		</script></head></html>`

		e := propwatchgoquery.NewListingExtractor()
		_, err := e.ExtractListings(page)
		require.Error(t, err)
		assert.Equal(t, propwatch.EINVALID, propwatch.ErrorCode(err))
	})
}
