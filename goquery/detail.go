package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/propwatch/propwatch"
)

// Ensure DetailExtractor implements propwatch.DetailExtractor at compile time.
var _ propwatch.DetailExtractor = (*DetailExtractor)(nil)

// DetailExtractor lifts structured fields from a listing detail page.
// Detail pages carry two LD+JSON blocks: a residence block
// (Apartment/House) with rooms, size and address, and an ItemPage block
// with the offer, price and agent. Both are merged into one flat map.
type DetailExtractor struct{}

// NewDetailExtractor creates a new DetailExtractor.
func NewDetailExtractor() *DetailExtractor {
	return &DetailExtractor{}
}

// ExtractDetail returns the fields found on the page. The result may be
// sparse; a challenge page typically yields close to nothing, which is
// the signal the challenge detector keys on.
func (e *DetailExtractor) ExtractDetail(html string) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, propwatch.Errorf(propwatch.EINVALID, "failed to parse HTML: %v", err)
	}

	out := make(map[string]any)

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		var data map[string]any
		if err := decodeLenient(raw, &data); err != nil {
			return
		}
		switch {
		case hasType(data["@type"], "Apartment") || hasType(data["@type"], "House"):
			mergeResidence(out, data)
		case hasType(data["@type"], "ItemPage"):
			mergeItemPage(out, data)
		}
	})

	// The page headline doubles as a liveness signal: challenge pages
	// render without one.
	if _, ok := out["headline"]; !ok {
		if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
			out["headline"] = h1
		}
	}

	if desc := doc.Find(`div[aria-label="Property description"]`); desc.Length() > 0 {
		out["full_description"] = strings.TrimSpace(desc.First().Text())
	}

	return out, nil
}

// mergeResidence copies fields from the Apartment/House block.
func mergeResidence(out map[string]any, data map[string]any) {
	out["property_type"] = data["@type"]
	setIfPresent(out, "schema_name", data["name"])
	setIfPresent(out, "schema_url", data["url"])

	if geo, ok := data["geo"].(map[string]any); ok {
		setIfPresent(out, "latitude", geo["latitude"])
		setIfPresent(out, "longitude", geo["longitude"])
	}
	if size, ok := data["floorSize"].(map[string]any); ok {
		setIfPresent(out, "floor_size", size["value"])
		setIfPresent(out, "floor_size_unit", size["unitText"])
	}
	if rooms, ok := data["numberOfRooms"].(map[string]any); ok {
		setIfPresent(out, "bedrooms", rooms["value"])
	}
	setIfPresent(out, "bathrooms", data["numberOfBathroomsTotal"])

	if addr, ok := data["address"].(map[string]any); ok {
		setIfPresent(out, "locality", addr["addressLocality"])
		setIfPresent(out, "region", addr["addressRegion"])
		setIfPresent(out, "country", addr["addressCountry"])
	}
	if place, ok := data["containedInPlace"].(map[string]any); ok {
		setIfPresent(out, "area_name", place["name"])
	}
}

// mergeItemPage copies fields from the ItemPage block's mainEntity.
func mergeItemPage(out map[string]any, data map[string]any) {
	entity, ok := data["mainEntity"].(map[string]any)
	if !ok {
		return
	}
	setIfPresent(out, "headline", entity["name"])
	setIfPresent(out, "description", entity["description"])
	setIfPresent(out, "main_image", entity["image"])

	offers, ok := entity["offers"].([]any)
	if !ok || len(offers) == 0 {
		return
	}
	offer, ok := offers[0].(map[string]any)
	if !ok {
		return
	}
	setIfPresent(out, "currency", offer["priceCurrency"])
	if spec, ok := offer["priceSpecification"].(map[string]any); ok {
		if price := toFloat(spec["price"]); price > 0 {
			out["price"] = price
		}
		setIfPresent(out, "price_currency", spec["priceCurrency"])
	}
	if agent, ok := offer["offeredBy"].(map[string]any); ok {
		setIfPresent(out, "agent_name", agent["name"])
		if org, ok := agent["parentOrganization"].(map[string]any); ok {
			setIfPresent(out, "agency_name", org["name"])
		}
	}
}

func setIfPresent(out map[string]any, key string, v any) {
	if v == nil {
		return
	}
	if s, ok := v.(string); ok && s == "" {
		return
	}
	out[key] = v
}
