package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/propwatch/propwatch"
)

// Ensure LoggingListingService implements propwatch.ListingService.
var _ propwatch.ListingService = (*LoggingListingService)(nil)

// LoggingListingService wraps a ListingService with logging on the
// write paths. Read paths delegate silently; they run once per item and
// would swamp the log.
type LoggingListingService struct {
	next   propwatch.ListingService
	logger *slog.Logger
}

// NewLoggingListingService creates a new LoggingListingService.
func NewLoggingListingService(next propwatch.ListingService, logger *slog.Logger) *LoggingListingService {
	return &LoggingListingService{next: next, logger: logger}
}

// UpsertListings delegates and logs the batch outcome.
func (s *LoggingListingService) UpsertListings(ctx context.Context, obs []*propwatch.Observation) error {
	begin := time.Now()
	err := s.next.UpsertListings(ctx, obs)
	if err != nil {
		s.logger.Error("upsert listings",
			"count", len(obs),
			"duration", time.Since(begin),
			"err", err,
		)
		return err
	}
	s.logger.Info("upsert listings",
		"count", len(obs),
		"duration", time.Since(begin),
	)
	return nil
}

// ExistsListing delegates to the wrapped service.
func (s *LoggingListingService) ExistsListing(ctx context.Context, id string) (bool, error) {
	return s.next.ExistsListing(ctx, id)
}

// ListingIDs delegates to the wrapped service.
func (s *LoggingListingService) ListingIDs(ctx context.Context) ([]string, error) {
	return s.next.ListingIDs(ctx)
}

// FindListingByID delegates to the wrapped service.
func (s *LoggingListingService) FindListingByID(ctx context.Context, id string) (*propwatch.Listing, error) {
	return s.next.FindListingByID(ctx, id)
}

// DetailTargets delegates to the wrapped service.
func (s *LoggingListingService) DetailTargets(ctx context.Context, limit, skip int, includeScraped bool) ([]*propwatch.Listing, error) {
	return s.next.DetailTargets(ctx, limit, skip, includeScraped)
}

// CountPendingDetails delegates to the wrapped service.
func (s *LoggingListingService) CountPendingDetails(ctx context.Context) (int, error) {
	return s.next.CountPendingDetails(ctx)
}

// MarkDetailScraped delegates and logs failures.
func (s *LoggingListingService) MarkDetailScraped(ctx context.Context, id string, at time.Time) error {
	err := s.next.MarkDetailScraped(ctx, id, at)
	if err != nil {
		s.logger.Error("mark detail scraped", "listing_id", id, "err", err)
	}
	return err
}

// CountListings delegates to the wrapped service.
func (s *LoggingListingService) CountListings(ctx context.Context) (int, error) {
	return s.next.CountListings(ctx)
}
