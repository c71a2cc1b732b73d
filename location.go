package propwatch

import (
	"fmt"
	"strings"
)

// LocationContext identifies the slice of the listing feed a harvest run
// covers. The same immutable value serves both country-wide and
// sub-location crawls; callers construct it once and pass it by value.
type LocationContext struct {
	// City and Sublocation are display labels; either may be empty for
	// broader crawls (e.g. a country-wide feed).
	City        string
	Sublocation string

	// URLTemplate is the paginated feed URL with a single %d verb for the
	// page number, e.g.
	// "https://example.com/for-sale/property/dubai/page-%d/?sort=date_desc".
	URLTemplate string

	Purpose Purpose
}

// Validate returns an error if the context cannot produce page URLs.
func (lc LocationContext) Validate() error {
	if lc.URLTemplate == "" {
		return Errorf(EINVALID, "location URL template required")
	}
	if !strings.Contains(lc.URLTemplate, "%d") {
		return Errorf(EINVALID, "location URL template must contain a %%d page placeholder")
	}
	return nil
}

// Label returns the location label recorded on observations, e.g.
// "Dubai/Dubai Marina", "Dubai", or "all" when no location is set.
func (lc LocationContext) Label() string {
	switch {
	case lc.City != "" && lc.Sublocation != "":
		return lc.City + "/" + lc.Sublocation
	case lc.City != "":
		return lc.City
	case lc.Sublocation != "":
		return lc.Sublocation
	default:
		return "all"
	}
}

// PageURL returns the feed URL for the given 1-based page number.
func (lc LocationContext) PageURL(page int) string {
	return fmt.Sprintf(lc.URLTemplate, page)
}
