package propwatch

import (
	"context"
	"encoding/json"
	"time"
)

// Purpose classifies what a listing is offered for.
type Purpose string

// Supported listing purposes.
const (
	PurposeForSale Purpose = "for-sale"
	PurposeForRent Purpose = "for-rent"
)

// MaxAppearances caps the appearance history kept per listing.
// The most recent entries are retained; the oldest are evicted.
const MaxAppearances = 100

// Appearance is one timestamped observation of a listing during a feed crawl.
type Appearance struct {
	PageNumber int       `json:"pageNumber"`
	Position   int       `json:"position"`
	Location   string    `json:"location"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observedAt"`
}

// Listing is one discovered listing, deduplicated by ID.
type Listing struct {
	// ID is the stable identifier derived from the detail URL or, failing
	// that, a content hash. Unique, never reassigned.
	ID string `json:"id"`

	CanonicalURL string  `json:"canonicalUrl"`
	CurrentPrice float64 `json:"currentPrice"`
	Purpose      Purpose `json:"purpose"`

	// FirstSeen is fixed at creation; LastSeen is refreshed on every
	// re-observation.
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`

	FirstPage     int    `json:"firstPage"`
	FirstLocation string `json:"firstLocation"`
	LastPage      int    `json:"lastPage"`
	LastPosition  int    `json:"lastPosition"`
	LastLocation  string `json:"lastLocation"`

	// LocationsSeen is the set of location labels this listing has appeared
	// under. Order is irrelevant and entries never repeat.
	LocationsSeen []string `json:"locationsSeen"`

	// Appearances is the observation history, most recent MaxAppearances
	// entries in arrival order.
	Appearances []Appearance `json:"appearances"`

	// DetailScraped fields are set by the detail fetch engine only.
	DetailScraped   bool      `json:"detailScraped"`
	DetailScrapedAt time.Time `json:"detailScrapedAt"`

	// LastRawItem is the most recent raw structured item as returned by
	// extraction. Opaque, overwritten each time.
	LastRawItem json.RawMessage `json:"lastRawItem"`
}

// Validate returns an error if the listing contains invalid fields.
func (l *Listing) Validate() error {
	if l.ID == "" {
		return Errorf(EINVALID, "listing ID required")
	}
	if !l.LastSeen.IsZero() && !l.FirstSeen.IsZero() && l.LastSeen.Before(l.FirstSeen) {
		return Errorf(EINVALID, "listing last seen precedes first seen")
	}
	return nil
}

// Observation is one sighting of a listing on a feed page, the unit of
// work the harvester hands to the dedup store.
type Observation struct {
	ID           string
	CanonicalURL string
	Purpose      Purpose
	Price        float64
	Location     string
	PageNumber   int
	Position     int
	ObservedAt   time.Time
	RawItem      json.RawMessage
}

// Validate returns an error if the observation contains invalid fields.
func (o *Observation) Validate() error {
	if o.ID == "" {
		return Errorf(EINVALID, "observation listing ID required")
	}
	if o.ObservedAt.IsZero() {
		return Errorf(EINVALID, "observation timestamp required")
	}
	return nil
}

// NewListing creates a listing from its first observation. The first_*
// fields are fixed here and never change afterwards.
func NewListing(o *Observation) *Listing {
	l := &Listing{
		ID:            o.ID,
		FirstSeen:     o.ObservedAt,
		FirstPage:     o.PageNumber,
		FirstLocation: o.Location,
	}
	l.Apply(o)
	return l
}

// Apply merges an observation into the listing: refreshes the last_*
// fields, unions the location into LocationsSeen, and appends an
// appearance with truncation to the most recent MaxAppearances.
// FirstSeen and the other first_* fields are left untouched.
func (l *Listing) Apply(o *Observation) {
	if o.CanonicalURL != "" {
		l.CanonicalURL = o.CanonicalURL
	}
	if o.Purpose != "" {
		l.Purpose = o.Purpose
	}
	l.CurrentPrice = o.Price
	l.LastSeen = o.ObservedAt
	l.LastPage = o.PageNumber
	l.LastPosition = o.Position
	l.LastLocation = o.Location
	if len(o.RawItem) > 0 {
		l.LastRawItem = o.RawItem
	}

	if o.Location != "" && !containsString(l.LocationsSeen, o.Location) {
		l.LocationsSeen = append(l.LocationsSeen, o.Location)
	}

	l.Appearances = append(l.Appearances, Appearance{
		PageNumber: o.PageNumber,
		Position:   o.Position,
		Location:   o.Location,
		Price:      o.Price,
		ObservedAt: o.ObservedAt,
	})
	if n := len(l.Appearances); n > MaxAppearances {
		l.Appearances = append([]Appearance(nil), l.Appearances[n-MaxAppearances:]...)
	}
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// ListingService represents the dedup store for listings.
type ListingService interface {
	// UpsertListings atomically applies a batch of observations: listings
	// are created on first sight and merged on re-observation. Safe under
	// concurrent callers upserting different IDs.
	UpsertListings(ctx context.Context, obs []*Observation) error

	// ExistsListing reports whether a listing with the given ID is known.
	ExistsListing(ctx context.Context, id string) (bool, error)

	// ListingIDs returns the IDs of all known listings, used to preload
	// the harvester's seen-cache.
	ListingIDs(ctx context.Context) ([]string, error)

	// FindListingByID retrieves a listing by ID.
	// Returns ENOTFOUND if the listing does not exist.
	FindListingByID(ctx context.Context, id string) (*Listing, error)

	// DetailTargets returns listings eligible for a detail fetch: those
	// with a known canonical URL whose detail page has not been scraped,
	// widened to already-scraped listings when includeScraped is set for
	// forced re-fetch runs. Stable order so that skip produces a
	// consistent resume point absent concurrent inserts.
	DetailTargets(ctx context.Context, limit, skip int, includeScraped bool) ([]*Listing, error)

	// CountPendingDetails returns the size of the pending set.
	CountPendingDetails(ctx context.Context) (int, error)

	// MarkDetailScraped flags a listing's detail page as scraped.
	// Returns ENOTFOUND if the listing does not exist.
	MarkDetailScraped(ctx context.Context, id string, at time.Time) error

	// CountListings returns the total number of known listings.
	CountListings(ctx context.Context) (int, error)
}
