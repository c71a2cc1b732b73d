// Package mock provides function-field test doubles for the propwatch
// service interfaces.
package mock

import (
	"context"
	"time"

	"github.com/propwatch/propwatch"
)

var _ propwatch.ListingService = (*ListingService)(nil)

type ListingService struct {
	UpsertListingsFn      func(ctx context.Context, obs []*propwatch.Observation) error
	ExistsListingFn       func(ctx context.Context, id string) (bool, error)
	ListingIDsFn          func(ctx context.Context) ([]string, error)
	FindListingByIDFn     func(ctx context.Context, id string) (*propwatch.Listing, error)
	DetailTargetsFn       func(ctx context.Context, limit, skip int, includeScraped bool) ([]*propwatch.Listing, error)
	CountPendingDetailsFn func(ctx context.Context) (int, error)
	MarkDetailScrapedFn   func(ctx context.Context, id string, at time.Time) error
	CountListingsFn       func(ctx context.Context) (int, error)
}

func (s *ListingService) UpsertListings(ctx context.Context, obs []*propwatch.Observation) error {
	return s.UpsertListingsFn(ctx, obs)
}

func (s *ListingService) ExistsListing(ctx context.Context, id string) (bool, error) {
	return s.ExistsListingFn(ctx, id)
}

func (s *ListingService) ListingIDs(ctx context.Context) ([]string, error) {
	return s.ListingIDsFn(ctx)
}

func (s *ListingService) FindListingByID(ctx context.Context, id string) (*propwatch.Listing, error) {
	return s.FindListingByIDFn(ctx, id)
}

func (s *ListingService) DetailTargets(ctx context.Context, limit, skip int, includeScraped bool) ([]*propwatch.Listing, error) {
	return s.DetailTargetsFn(ctx, limit, skip, includeScraped)
}

func (s *ListingService) CountPendingDetails(ctx context.Context) (int, error) {
	return s.CountPendingDetailsFn(ctx)
}

func (s *ListingService) MarkDetailScraped(ctx context.Context, id string, at time.Time) error {
	return s.MarkDetailScrapedFn(ctx, id, at)
}

func (s *ListingService) CountListings(ctx context.Context) (int, error) {
	return s.CountListingsFn(ctx)
}
