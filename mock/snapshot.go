package mock

import (
	"context"

	"github.com/propwatch/propwatch"
)

var _ propwatch.SnapshotStore = (*SnapshotStore)(nil)

type SnapshotStore struct {
	SavePageFn   func(ctx context.Context, location string, page int, html string) error
	SaveDetailFn func(ctx context.Context, listingID string, html string) error
}

func (s *SnapshotStore) SavePage(ctx context.Context, location string, page int, html string) error {
	return s.SavePageFn(ctx, location, page, html)
}

func (s *SnapshotStore) SaveDetail(ctx context.Context, listingID string, html string) error {
	return s.SaveDetailFn(ctx, listingID, html)
}
