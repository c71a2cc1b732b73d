package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/propwatch/propwatch"
)

// Compile-time interface verification.
var _ propwatch.DetailService = (*DetailService)(nil)

// DetailService implements propwatch.DetailService using SQLite.
type DetailService struct {
	db *DB
}

// NewDetailService creates a new DetailService.
func NewDetailService(db *DB) *DetailService {
	return &DetailService{db: db}
}

// SaveDetail upserts the record for its listing ID, overwriting any
// previous attempt.
func (s *DetailService) SaveDetail(ctx context.Context, rec *propwatch.DetailRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(rec.ExtractedData)
	if err != nil {
		return fmt.Errorf("failed to encode extracted_data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO details (listing_id, url, extraction_success, bot_challenge, extracted_data, error, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(listing_id) DO UPDATE SET
			url = excluded.url,
			extraction_success = excluded.extraction_success,
			bot_challenge = excluded.bot_challenge,
			extracted_data = excluded.extracted_data,
			error = excluded.error,
			scraped_at = excluded.scraped_at
	`, rec.ListingID, rec.URL, rec.ExtractionSuccess, rec.BotChallenge,
		string(data), rec.Error, formatTime(rec.ScrapedAt))
	return err
}

// FindDetailByListingID retrieves the latest record for a listing.
func (s *DetailService) FindDetailByListingID(ctx context.Context, id string) (*propwatch.DetailRecord, error) {
	var (
		rec       propwatch.DetailRecord
		data      string
		scrapedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT listing_id, url, extraction_success, bot_challenge, extracted_data, error, scraped_at
		FROM details
		WHERE listing_id = ?
	`, id).Scan(&rec.ListingID, &rec.URL, &rec.ExtractionSuccess, &rec.BotChallenge,
		&data, &rec.Error, &scrapedAt)

	if err == sql.ErrNoRows {
		return nil, propwatch.Errorf(propwatch.ENOTFOUND, "detail record not found")
	}
	if err != nil {
		return nil, err
	}

	if rec.ScrapedAt, err = parseTime(scrapedAt, "scraped_at"); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &rec.ExtractedData); err != nil {
		return nil, fmt.Errorf("failed to parse extracted_data: %w", err)
	}
	return &rec, nil
}

// HasSuccessfulDetail reports whether a successful record exists for the
// listing.
func (s *DetailService) HasSuccessfulDetail(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM details WHERE listing_id = ? AND extraction_success = 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountSuccessfulDetails returns the number of listings with a
// successful record.
func (s *DetailService) CountSuccessfulDetails(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM details WHERE extraction_success = 1").Scan(&n)
	return n, err
}
