package mock

import (
	"context"

	"github.com/propwatch/propwatch"
)

var _ propwatch.DetailService = (*DetailService)(nil)

type DetailService struct {
	SaveDetailFn             func(ctx context.Context, rec *propwatch.DetailRecord) error
	FindDetailByListingIDFn  func(ctx context.Context, id string) (*propwatch.DetailRecord, error)
	HasSuccessfulDetailFn    func(ctx context.Context, id string) (bool, error)
	CountSuccessfulDetailsFn func(ctx context.Context) (int, error)
}

func (s *DetailService) SaveDetail(ctx context.Context, rec *propwatch.DetailRecord) error {
	return s.SaveDetailFn(ctx, rec)
}

func (s *DetailService) FindDetailByListingID(ctx context.Context, id string) (*propwatch.DetailRecord, error) {
	return s.FindDetailByListingIDFn(ctx, id)
}

func (s *DetailService) HasSuccessfulDetail(ctx context.Context, id string) (bool, error) {
	return s.HasSuccessfulDetailFn(ctx, id)
}

func (s *DetailService) CountSuccessfulDetails(ctx context.Context) (int, error) {
	return s.CountSuccessfulDetailsFn(ctx)
}
