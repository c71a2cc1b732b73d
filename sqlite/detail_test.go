package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/propwatch/propwatch"
	"github.com/propwatch/propwatch/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailService_SaveDetail(t *testing.T) {
	t.Parallel()

	t.Run("round trips a record", func(t *testing.T) {
		t.Parallel()

		db := MustOpenDB(t)
		svc := sqlite.NewDetailService(db)
		ctx := context.Background()
		at := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)

		rec := &propwatch.DetailRecord{
			ListingID:         "101",
			URL:               "https://feeds.test/property/details-101.html",
			ExtractionSuccess: true,
			ExtractedData: map[string]any{
				"headline": "Spacious 3BR with marina view",
				"locality": "Dubai Marina",
			},
			ScrapedAt: at,
		}
		require.NoError(t, svc.SaveDetail(ctx, rec))

		got, err := svc.FindDetailByListingID(ctx, "101")
		require.NoError(t, err)
		assert.Equal(t, rec.URL, got.URL)
		assert.True(t, got.ExtractionSuccess)
		assert.False(t, got.BotChallenge)
		assert.Equal(t, rec.ExtractedData, got.ExtractedData)
		assert.Equal(t, at, got.ScrapedAt)
	})

	t.Run("overwrites a previous attempt", func(t *testing.T) {
		t.Parallel()

		db := MustOpenDB(t)
		svc := sqlite.NewDetailService(db)
		ctx := context.Background()
		at := time.Now().UTC()

		require.NoError(t, svc.SaveDetail(ctx, &propwatch.DetailRecord{
			ListingID:    "101",
			BotChallenge: true,
			ScrapedAt:    at,
		}))
		require.NoError(t, svc.SaveDetail(ctx, &propwatch.DetailRecord{
			ListingID:         "101",
			ExtractionSuccess: true,
			ScrapedAt:         at.Add(time.Hour),
		}))

		got, err := svc.FindDetailByListingID(ctx, "101")
		require.NoError(t, err)
		assert.True(t, got.ExtractionSuccess)
		assert.False(t, got.BotChallenge)

		n, err := svc.CountSuccessfulDetails(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("rejects invalid records", func(t *testing.T) {
		t.Parallel()

		db := MustOpenDB(t)
		svc := sqlite.NewDetailService(db)

		err := svc.SaveDetail(context.Background(), &propwatch.DetailRecord{ListingID: ""})
		require.Error(t, err)
		assert.Equal(t, propwatch.EINVALID, propwatch.ErrorCode(err))
	})
}

func TestDetailService_FindDetailByListingID_not_found(t *testing.T) {
	t.Parallel()

	db := MustOpenDB(t)
	svc := sqlite.NewDetailService(db)

	_, err := svc.FindDetailByListingID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, propwatch.ENOTFOUND, propwatch.ErrorCode(err))
}

func TestDetailService_HasSuccessfulDetail(t *testing.T) {
	t.Parallel()

	db := MustOpenDB(t)
	svc := sqlite.NewDetailService(db)
	ctx := context.Background()
	at := time.Now().UTC()

	require.NoError(t, svc.SaveDetail(ctx, &propwatch.DetailRecord{
		ListingID: "101", ExtractionSuccess: true, ScrapedAt: at,
	}))
	require.NoError(t, svc.SaveDetail(ctx, &propwatch.DetailRecord{
		ListingID: "102", BotChallenge: true, ScrapedAt: at,
	}))

	ok, err := svc.HasSuccessfulDetail(ctx, "101")
	require.NoError(t, err)
	assert.True(t, ok)

	// A challenge record is not terminal.
	ok, err = svc.HasSuccessfulDetail(ctx, "102")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasSuccessfulDetail(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
