package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/propwatch/propwatch"
)

// Compile-time interface verification.
var _ propwatch.ListingService = (*ListingService)(nil)

// ListingService implements propwatch.ListingService using SQLite.
type ListingService struct {
	db *DB
}

// NewListingService creates a new ListingService.
func NewListingService(db *DB) *ListingService {
	return &ListingService{db: db}
}

const listingColumns = `id, canonical_url, current_price, purpose, first_seen, last_seen,
	first_page, first_location, last_page, last_position, last_location,
	locations_seen, appearances, detail_scraped, detail_scraped_at, last_raw_item`

// queryRower is satisfied by both *DB and *sql.Tx, so lookups can run
// inside and outside a transaction.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UpsertListings applies a batch of observations in one transaction:
// unknown IDs are inserted, known IDs are merged via Listing.Apply. The
// transaction plus SQLite's single-writer rule gives per-ID atomicity
// under concurrent callers.
func (s *ListingService) UpsertListings(ctx context.Context, obs []*propwatch.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	for _, o := range obs {
		if err := o.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, o := range obs {
		existing, err := findListing(ctx, tx, o.ID)
		if err != nil && propwatch.ErrorCode(err) != propwatch.ENOTFOUND {
			return err
		}
		if existing == nil {
			if err := insertListing(ctx, tx, propwatch.NewListing(o)); err != nil {
				return err
			}
			continue
		}
		existing.Apply(o)
		if err := updateListing(ctx, tx, existing); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ExistsListing reports whether a listing with the given ID is known.
func (s *ListingService) ExistsListing(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM listings WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListingIDs returns the IDs of all known listings.
func (s *ListingService) ListingIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM listings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindListingByID retrieves a listing by ID.
func (s *ListingService) FindListingByID(ctx context.Context, id string) (*propwatch.Listing, error) {
	return findListing(ctx, s.db, id)
}

// DetailTargets returns listings eligible for a detail fetch, oldest
// first so that skip offsets stay stable across runs absent new inserts.
// includeScraped widens the set to already-scraped listings for forced
// re-fetch runs.
func (s *ListingService) DetailTargets(ctx context.Context, limit, skip int, includeScraped bool) ([]*propwatch.Listing, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + listingColumns + " FROM listings WHERE canonical_url != ''")
	if !includeScraped {
		query.WriteString(" AND detail_scraped = 0")
	}
	query.WriteString(" ORDER BY first_seen ASC, id ASC")
	appendPagination(&query, &args, limit, skip)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*propwatch.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// CountPendingDetails returns the size of the pending set.
func (s *ListingService) CountPendingDetails(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM listings WHERE detail_scraped = 0 AND canonical_url != ''").Scan(&n)
	return n, err
}

// MarkDetailScraped flags a listing's detail page as scraped.
func (s *ListingService) MarkDetailScraped(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE listings SET detail_scraped = 1, detail_scraped_at = ? WHERE id = ?
	`, formatTime(at), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return propwatch.Errorf(propwatch.ENOTFOUND, "listing not found")
	}
	return nil
}

// CountListings returns the total number of known listings.
func (s *ListingService) CountListings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&n)
	return n, err
}

func findListing(ctx context.Context, q queryRower, id string) (*propwatch.Listing, error) {
	row := q.QueryRowContext(ctx, "SELECT "+listingColumns+" FROM listings WHERE id = ?", id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, propwatch.Errorf(propwatch.ENOTFOUND, "listing not found")
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(sc rowScanner) (*propwatch.Listing, error) {
	var (
		l               propwatch.Listing
		firstSeen       string
		lastSeen        string
		locationsSeen   string
		appearances     string
		detailScrapedAt string
		lastRawItem     string
	)
	err := sc.Scan(&l.ID, &l.CanonicalURL, &l.CurrentPrice, &l.Purpose, &firstSeen, &lastSeen,
		&l.FirstPage, &l.FirstLocation, &l.LastPage, &l.LastPosition, &l.LastLocation,
		&locationsSeen, &appearances, &l.DetailScraped, &detailScrapedAt, &lastRawItem)
	if err != nil {
		return nil, err
	}

	if l.FirstSeen, err = parseTime(firstSeen, "first_seen"); err != nil {
		return nil, err
	}
	if l.LastSeen, err = parseTime(lastSeen, "last_seen"); err != nil {
		return nil, err
	}
	if l.DetailScrapedAt, err = parseTime(detailScrapedAt, "detail_scraped_at"); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(locationsSeen), &l.LocationsSeen); err != nil {
		return nil, fmt.Errorf("failed to parse locations_seen: %w", err)
	}
	if err := json.Unmarshal([]byte(appearances), &l.Appearances); err != nil {
		return nil, fmt.Errorf("failed to parse appearances: %w", err)
	}
	if lastRawItem != "" {
		l.LastRawItem = json.RawMessage(lastRawItem)
	}
	return &l, nil
}

// listingArgs renders a listing into the column order of listingColumns.
func listingArgs(l *propwatch.Listing) ([]any, error) {
	locationsSeen, err := json.Marshal(l.LocationsSeen)
	if err != nil {
		return nil, fmt.Errorf("failed to encode locations_seen: %w", err)
	}
	appearances, err := json.Marshal(l.Appearances)
	if err != nil {
		return nil, fmt.Errorf("failed to encode appearances: %w", err)
	}
	return []any{
		l.ID, l.CanonicalURL, l.CurrentPrice, string(l.Purpose),
		formatTime(l.FirstSeen), formatTime(l.LastSeen),
		l.FirstPage, l.FirstLocation, l.LastPage, l.LastPosition, l.LastLocation,
		string(locationsSeen), string(appearances),
		l.DetailScraped, formatTime(l.DetailScrapedAt), string(l.LastRawItem),
	}, nil
}

func insertListing(ctx context.Context, tx *sql.Tx, l *propwatch.Listing) error {
	if err := l.Validate(); err != nil {
		return err
	}
	args, err := listingArgs(l)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	return err
}

func updateListing(ctx context.Context, tx *sql.Tx, l *propwatch.Listing) error {
	if err := l.Validate(); err != nil {
		return err
	}
	args, err := listingArgs(l)
	if err != nil {
		return err
	}
	// Shift the ID from first position to the WHERE clause.
	args = append(args[1:], l.ID)
	_, err = tx.ExecContext(ctx, `
		UPDATE listings
		SET canonical_url = ?, current_price = ?, purpose = ?, first_seen = ?, last_seen = ?,
			first_page = ?, first_location = ?, last_page = ?, last_position = ?, last_location = ?,
			locations_seen = ?, appearances = ?, detail_scraped = ?, detail_scraped_at = ?, last_raw_item = ?
		WHERE id = ?
	`, args...)
	return err
}
