package main_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/propwatch/propwatch"
	main "github.com/propwatch/propwatch/cmd/propwatch"
	"github.com/propwatch/propwatch/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeps(stdout, stderr *bytes.Buffer) *main.Dependencies {
	return &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: stderr,
	}
}

func TestStatusCmd(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	deps := testDeps(stdout, stderr)
	deps.Listings = &mock.ListingService{
		CountListingsFn:       func(ctx context.Context) (int, error) { return 1200, nil },
		CountPendingDetailsFn: func(ctx context.Context) (int, error) { return 64, nil },
	}
	deps.Details = &mock.DetailService{
		CountSuccessfulDetailsFn: func(ctx context.Context) (int, error) { return 1136, nil },
	}

	cmd := &main.StatusCmd{}
	require.NoError(t, cmd.Run(deps))

	out := stdout.String()
	assert.Contains(t, out, "listings: 1200")
	assert.Contains(t, out, "pending details: 64")
	assert.Contains(t, out, "scraped details: 1136")
	assert.Empty(t, stderr.String())
}

func TestHarvestCmd(t *testing.T) {
	t.Parallel()

	t.Run("rejects template without page placeholder", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := testDeps(stdout, stderr)

		cmd := &main.HarvestCmd{URLTemplate: "https://feeds.test/for-sale/"}
		err := cmd.Run(deps)
		require.Error(t, err)
		assert.Equal(t, propwatch.EINVALID, propwatch.ErrorCode(err))
		assert.Contains(t, stderr.String(), "placeholder")
	})

	t.Run("runs a harvest and prints the summary", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := testDeps(stdout, stderr)
		// Pad the body past the undersized-page threshold.
		filler := strings.Repeat("<div>listing</div>", 100)
		deps.Fetcher = &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) {
				return "<html>" + filler + "</html>", nil
			},
		}
		deps.ListingExtractor = &mock.ListingExtractor{
			ExtractListingsFn: func(html string) ([]propwatch.RawListing, error) {
				return []propwatch.RawListing{
					{Position: 1, URL: "https://feeds.test/property/details-101.html", Price: 100},
				}, nil
			},
		}
		var upserted int
		deps.Listings = &mock.ListingService{
			UpsertListingsFn: func(ctx context.Context, obs []*propwatch.Observation) error {
				upserted += len(obs)
				return nil
			},
		}

		cmd := &main.HarvestCmd{
			URLTemplate: "https://feeds.test/for-sale/property/dubai/page-%d/",
			City:        "Dubai",
			Purpose:     "for-sale",
			MaxPages:    2,
		}
		require.NoError(t, cmd.Run(deps))

		assert.Equal(t, 2, upserted)
		out := stdout.String()
		assert.Contains(t, out, "Harvest completed (Dubai)")
		assert.Contains(t, out, "pages: 2")
		assert.Contains(t, out, "observed: 2")
	})
}

func TestDetailsCmd(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	deps := testDeps(stdout, stderr)
	deps.Listings = &mock.ListingService{
		DetailTargetsFn: func(ctx context.Context, limit, skip int, includeScraped bool) ([]*propwatch.Listing, error) {
			return nil, nil
		},
	}
	deps.Details = &mock.DetailService{}
	deps.Fetcher = &mock.Fetcher{}
	deps.DetailExtractor = &mock.DetailExtractor{}

	cmd := &main.DetailsCmd{Concurrency: 1, BatchSize: 10}
	require.NoError(t, cmd.Run(deps))

	out := stdout.String()
	assert.Contains(t, out, "Detail fetch completed")
	assert.Contains(t, out, "processed: 0")
}
