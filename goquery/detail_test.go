package goquery_test

import (
	"testing"

	"github.com/propwatch/propwatch"
	propwatchgoquery "github.com/propwatch/propwatch/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailPage = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Apartment",
  "name": "3 Bedroom Apartment in Marina Gate",
  "url": "https://feeds.test/property/details-8102931.html",
  "geo": {"latitude": 25.0803, "longitude": 55.1403},
  "floorSize": {"value": 1850, "unitText": "sqft"},
  "numberOfRooms": {"value": 3},
  "numberOfBathroomsTotal": 4,
  "address": {
    "addressCountry": "AE",
    "addressRegion": "Dubai",
    "addressLocality": "Dubai Marina"
  },
  "containedInPlace": {"name": "Marina Gate"}
}
</script>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "ItemPage",
  "mainEntity": {
    "name": "Spacious 3BR | Full Marina View | Vacant",
    "description": "Bright and spacious three bedroom apartment.",
    "image": "https://images.test/8102931.jpg",
    "offers": [
      {
        "priceCurrency": "AED",
        "priceSpecification": {"price": 2500000, "priceCurrency": "AED"},
        "offeredBy": {
          "name": "Jane Agent",
          "parentOrganization": {"name": "Marina Realty"}
        }
      }
    ]
  }
}
</script>
</head>
<body>
<h1>Spacious 3BR | Full Marina View | Vacant</h1>
<div aria-label="Property description">Bright and spacious three bedroom apartment.</div>
</body>
</html>`

func TestDetailExtractor_ExtractDetail(t *testing.T) {
	t.Parallel()

	t.Run("merges residence and item page blocks", func(t *testing.T) {
		t.Parallel()

		e := propwatchgoquery.NewDetailExtractor()
		fields, err := e.ExtractDetail(detailPage)
		require.NoError(t, err)

		assert.Equal(t, "Apartment", fields["property_type"])
		assert.Equal(t, 3.0, fields["bedrooms"])
		assert.Equal(t, 4.0, fields["bathrooms"])
		assert.Equal(t, "Dubai Marina", fields["locality"])
		assert.Equal(t, "Dubai", fields["region"])
		assert.Equal(t, "Marina Gate", fields["area_name"])
		assert.Equal(t, 1850.0, fields["floor_size"])
		assert.Equal(t, "Spacious 3BR | Full Marina View | Vacant", fields["headline"])
		assert.Equal(t, 2500000.0, fields["price"])
		assert.Equal(t, "AED", fields["currency"])
		assert.Equal(t, "Jane Agent", fields["agent_name"])
		assert.Equal(t, "Marina Realty", fields["agency_name"])
	})

	t.Run("classifies a complete page as normal", func(t *testing.T) {
		t.Parallel()

		e := propwatchgoquery.NewDetailExtractor()
		fields, err := e.ExtractDetail(detailPage)
		require.NoError(t, err)

		detector := propwatch.NewChallengeDetector()
		assert.Equal(t, propwatch.ClassNormal, detector.Classify(detailPage, fields))
	})

	t.Run("yields a sparse map for a challenge page", func(t *testing.T) {
		t.Parallel()

		page := `<html><head><title>Just a moment...</title></head>
		<body>Checking your browser before accessing the site.</body></html>`

		e := propwatchgoquery.NewDetailExtractor()
		fields, err := e.ExtractDetail(page)
		require.NoError(t, err)
		assert.NotContains(t, fields, "price")
		assert.NotContains(t, fields, "bedrooms")
		assert.NotContains(t, fields, "locality")

		detector := propwatch.NewChallengeDetector()
		assert.Equal(t, propwatch.ClassChallenge, detector.Classify(page, fields))
	})

	t.Run("falls back to the h1 headline", func(t *testing.T) {
		t.Parallel()

		page := `<html><body><h1>Penthouse with Burj View</h1></body></html>`

		e := propwatchgoquery.NewDetailExtractor()
		fields, err := e.ExtractDetail(page)
		require.NoError(t, err)
		assert.Equal(t, "Penthouse with Burj View", fields["headline"])
	})
}
