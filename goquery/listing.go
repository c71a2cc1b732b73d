// Package goquery implements HTML extraction for listing portals that
// publish schema.org LD+JSON data alongside their markup.
package goquery

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/propwatch/propwatch"
)

// Ensure ListingExtractor implements propwatch.ListingExtractor at compile time.
var _ propwatch.ListingExtractor = (*ListingExtractor)(nil)

// ListingExtractor lifts listing items from the LD+JSON ItemList block
// embedded in a feed page.
type ListingExtractor struct{}

// NewListingExtractor creates a new ListingExtractor.
func NewListingExtractor() *ListingExtractor {
	return &ListingExtractor{}
}

// Portals emit hand-assembled JSON with stray trailing commas.
var trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)

// decodeLenient parses JSON, tolerating trailing commas.
func decodeLenient(raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}
	fixed := trailingCommaPattern.ReplaceAllString(raw, "$1")
	return json.Unmarshal([]byte(fixed), v)
}

// itemList mirrors the schema.org ItemList envelope. @type may be a
// string or a list of strings.
type itemList struct {
	Type     any               `json:"@type"`
	Elements []json.RawMessage `json:"itemListElement"`
}

// listItem is the subset of an itemListElement entry the pipeline needs.
type listItem struct {
	Position   int `json:"position"`
	MainEntity struct {
		URL    string `json:"url"`
		Offers []struct {
			PriceSpecification struct {
				Price any `json:"price"`
			} `json:"priceSpecification"`
		} `json:"offers"`
	} `json:"mainEntity"`
}

// ExtractListings returns the items found on the page in page order.
// The block is located the way the portal publishes it: prefer a script
// whose first element carries property data (mainEntity), fall back to
// any script typed ItemList.
func (e *ListingExtractor) ExtractListings(html string) ([]propwatch.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, propwatch.Errorf(propwatch.EINVALID, "failed to parse HTML: %v", err)
	}

	var blobs []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		if raw := strings.TrimSpace(sel.Text()); raw != "" {
			blobs = append(blobs, raw)
		}
	})
	if len(blobs) == 0 {
		return nil, propwatch.Errorf(propwatch.EINVALID, "no ld+json script found")
	}

	list := pickItemList(blobs)
	if list == nil {
		return nil, propwatch.Errorf(propwatch.EINVALID, "no item list found in ld+json")
	}

	items := make([]propwatch.RawListing, 0, len(list.Elements))
	for _, raw := range list.Elements {
		var item listItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		var price float64
		if offers := item.MainEntity.Offers; len(offers) > 0 {
			price = toFloat(offers[0].PriceSpecification.Price)
		}
		items = append(items, propwatch.RawListing{
			Position: item.Position,
			URL:      item.MainEntity.URL,
			Price:    price,
			Raw:      raw,
		})
	}
	return items, nil
}

// pickItemList chooses the LD+JSON block holding the listing feed.
func pickItemList(blobs []string) *itemList {
	// First pass: a block whose first element has property data.
	for _, raw := range blobs {
		var list itemList
		if err := decodeLenient(raw, &list); err != nil {
			continue
		}
		if len(list.Elements) == 0 {
			continue
		}
		var probe struct {
			MainEntity json.RawMessage `json:"mainEntity"`
		}
		if err := json.Unmarshal(list.Elements[0], &probe); err == nil && len(probe.MainEntity) > 0 {
			return &list
		}
	}

	// Fallback: any block typed ItemList.
	for _, raw := range blobs {
		var list itemList
		if err := decodeLenient(raw, &list); err != nil {
			continue
		}
		if hasType(list.Type, "ItemList") && list.Elements != nil {
			return &list
		}
	}
	return nil
}

// hasType reports whether a schema.org @type value, string or list,
// names the given type.
func hasType(t any, name string) bool {
	switch v := t.(type) {
	case string:
		return v == name
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s == name {
				return true
			}
		}
	}
	return false
}

// toFloat coerces the price value, which portals emit either as a
// number or a string.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}
