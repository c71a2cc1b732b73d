package propwatch

import (
	"context"
	"time"
)

// DetailRecord is the outcome of one detail-page fetch attempt,
// one-to-one with a listing by ListingID. A record with
// ExtractionSuccess true is terminal: the listing is not re-fetched
// unless explicitly forced.
type DetailRecord struct {
	ListingID string `json:"listingId"`
	URL       string `json:"url"`

	ExtractionSuccess bool `json:"extractionSuccess"`

	// BotChallenge is true when the fetch was classified as an anti-bot
	// challenge rather than real content.
	BotChallenge bool `json:"botChallenge"`

	// ExtractedData is the opaque payload returned by extraction, present
	// when an extraction attempt occurred. Retained even for challenges
	// for forensic inspection.
	ExtractedData map[string]any `json:"extractedData"`

	// Error holds the transport or extraction failure message, if any.
	Error string `json:"error"`

	ScrapedAt time.Time `json:"scrapedAt"`
}

// Validate returns an error if the record contains invalid fields.
func (r *DetailRecord) Validate() error {
	if r.ListingID == "" {
		return Errorf(EINVALID, "detail record listing ID required")
	}
	if r.ScrapedAt.IsZero() {
		return Errorf(EINVALID, "detail record timestamp required")
	}
	return nil
}

// DetailService stores detail-fetch outcomes.
type DetailService interface {
	// SaveDetail upserts the record for its listing ID, overwriting any
	// previous attempt.
	SaveDetail(ctx context.Context, rec *DetailRecord) error

	// FindDetailByListingID retrieves the latest record for a listing.
	// Returns ENOTFOUND if no attempt has been recorded.
	FindDetailByListingID(ctx context.Context, id string) (*DetailRecord, error)

	// HasSuccessfulDetail reports whether a successful record exists for
	// the listing, i.e. whether a re-fetch would be a no-op.
	HasSuccessfulDetail(ctx context.Context, id string) (bool, error)

	// CountSuccessfulDetails returns the number of listings with a
	// successful record.
	CountSuccessfulDetails(ctx context.Context) (int, error)
}
