package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/propwatch/propwatch"
	"github.com/propwatch/propwatch/bloom"
)

// RunStatus distinguishes how a run ended.
type RunStatus string

// Run statuses.
const (
	// StatusCompleted means the run processed everything it was asked to.
	StatusCompleted RunStatus = "completed"

	// StatusStoppedByPolicy means a stopping rule ended the run early
	// (end of listings, or the consecutive-known threshold).
	StatusStoppedByPolicy RunStatus = "stopped-by-policy"

	// StatusCanceled means an external shutdown signal ended the run.
	StatusCanceled RunStatus = "canceled"
)

// Stop reasons reported alongside StatusStoppedByPolicy.
const (
	ReasonEndOfListings = "end-of-listings"
	ReasonKnownRun      = "consecutive-known"
)

// Harvester defaults.
const (
	DefaultMaxPages       = 50
	DefaultEmptyPageLimit = 5
	DefaultKnownRunLimit  = 2
	DefaultMinBodyBytes   = 1000

	// seenFilterSize sizes the Bloom seen-cache for a typical market.
	seenFilterSize   = 500000
	seenFilterFPRate = 0.01
)

// Harvester paginates a listing feed, extracts items per page, resolves
// identities, and upserts observations into the dedup store. One
// Harvester value describes one run; it is not reused.
type Harvester struct {
	Fetcher   propwatch.Fetcher
	Extractor propwatch.ListingExtractor
	Listings  propwatch.ListingService

	// Location describes the feed slice being crawled; the same value
	// object serves city-wide and sub-location runs.
	Location propwatch.LocationContext

	// Seen is an optional negative cache in front of ExistsListing.
	// It must be preloaded with every ID already in the store (see
	// LoadSeenFilter); a filter answering "never seen" for a stored
	// listing would misclassify it as new. When nil, every lookup goes
	// to the store.
	Seen *bloom.Filter

	// Snapshots, when set, archives each fetched page.
	Snapshots propwatch.SnapshotStore

	// Pacer spaces page requests. Nil means no delay.
	Pacer *Pacer

	Logger *slog.Logger

	// Incremental enables the consecutive-known stopping rule, which
	// bounds a daily run to the delta since the previous run. It is only
	// correct if the feed orders new listings first; disable it (or this
	// mode) for feeds without that guarantee.
	Incremental bool

	// MaxPages caps the run. Defaults to DefaultMaxPages.
	MaxPages int

	// EmptyPageLimit is how many consecutive empty or invalid pages end
	// the run. Defaults to DefaultEmptyPageLimit.
	EmptyPageLimit int

	// KnownRunLimit is the consecutive-known threshold for incremental
	// runs. Defaults to DefaultKnownRunLimit.
	KnownRunLimit int

	// MinBodyBytes is the smallest body accepted as a real page.
	// Defaults to DefaultMinBodyBytes.
	MinBodyBytes int
}

// HarvestResult summarizes a harvest run.
type HarvestResult struct {
	RunID    string
	Status   RunStatus
	Reason   string
	Pages    int
	Observed int
	New      int
	Known    int
	Errors   int
}

// Harvester run states. Each page moves through
// fetching -> extracting -> upserting and back; any stopping rule moves
// to stopped.
type harvestState int

const (
	stateFetching harvestState = iota
	stateExtracting
	stateUpserting
	stateStopped
)

// Run executes the harvest. Per-page errors are logged and treated as
// empty pages; only cancellation or a storage failure aborts the run.
func (h *Harvester) Run(ctx context.Context) (*HarvestResult, error) {
	if err := h.Location.Validate(); err != nil {
		return nil, err
	}

	maxPages := h.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	emptyLimit := h.EmptyPageLimit
	if emptyLimit <= 0 {
		emptyLimit = DefaultEmptyPageLimit
	}
	knownLimit := h.KnownRunLimit
	if knownLimit <= 0 {
		knownLimit = DefaultKnownRunLimit
	}
	minBody := h.MinBodyBytes
	if minBody <= 0 {
		minBody = DefaultMinBodyBytes
	}
	res := &HarvestResult{
		RunID:  uuid.New().String(),
		Status: StatusCompleted,
	}
	logger := h.logger().With(
		"run_id", res.RunID,
		"location", h.Location.Label(),
		"incremental", h.Incremental,
	)
	logger.Info("harvest started", "max_pages", maxPages)

	var (
		state            = stateFetching
		page             = 1
		emptyRun         = 0
		consecutiveKnown = 0
		html             string
		items            []propwatch.RawListing
	)

	// emptyPage applies the skip-and-continue policy shared by fetch
	// errors, undersized bodies, and pages with no items.
	emptyPage := func(why string, err error) {
		emptyRun++
		if err != nil {
			res.Errors++
			logger.Warn("page skipped", "page", page, "reason", why, "err", err)
		} else {
			logger.Info("page skipped", "page", page, "reason", why)
		}
		if emptyRun >= emptyLimit {
			res.Status = StatusStoppedByPolicy
			res.Reason = ReasonEndOfListings
			state = stateStopped
			return
		}
		page++
		state = stateFetching
	}

	for state != stateStopped {
		if ctx.Err() != nil {
			res.Status = StatusCanceled
			break
		}

		switch state {
		case stateFetching:
			if page > maxPages {
				state = stateStopped
				continue
			}
			if err := h.Pacer.Wait(ctx); err != nil {
				res.Status = StatusCanceled
				state = stateStopped
				continue
			}
			var err error
			html, err = h.Fetcher.Fetch(ctx, h.Location.PageURL(page))
			res.Pages++
			if err != nil {
				emptyPage("fetch failed", err)
				continue
			}
			if len(html) < minBody {
				emptyPage("undersized body", nil)
				continue
			}
			if h.Snapshots != nil {
				if err := h.Snapshots.SavePage(ctx, h.Location.Label(), page, html); err != nil {
					logger.Warn("page snapshot failed", "page", page, "err", err)
				}
			}
			state = stateExtracting

		case stateExtracting:
			var err error
			items, err = h.Extractor.ExtractListings(html)
			if err != nil {
				emptyPage("extraction failed", err)
				continue
			}
			if len(items) == 0 {
				emptyPage("no items", nil)
				continue
			}
			emptyRun = 0
			state = stateUpserting

		case stateUpserting:
			observedAt := time.Now().UTC()
			var batch []*propwatch.Observation
			stopEarly := false

			for _, item := range items {
				if h.Incremental && consecutiveKnown >= knownLimit {
					stopEarly = true
					break
				}

				obs := h.observation(item, page, observedAt)
				res.Observed++

				if !h.Incremental {
					batch = append(batch, obs)
					continue
				}

				known, err := h.isKnown(ctx, obs.ID)
				if err != nil {
					return res, err
				}
				if known {
					res.Known++
					consecutiveKnown++
					continue
				}
				res.New++
				consecutiveKnown = 0
				if h.Seen != nil {
					h.Seen.Add(obs.ID)
				}
				batch = append(batch, obs)
			}

			if len(batch) > 0 {
				if err := h.Listings.UpsertListings(ctx, batch); err != nil {
					return res, err
				}
			}
			logger.Info("page upserted",
				"page", page, "items", len(items), "new", len(batch))

			if stopEarly {
				res.Status = StatusStoppedByPolicy
				res.Reason = ReasonKnownRun
				state = stateStopped
				continue
			}
			page++
			state = stateFetching
		}
	}

	logger.Info("harvest finished",
		"status", res.Status,
		"reason", res.Reason,
		"pages", res.Pages,
		"new", res.New,
		"known", res.Known,
		"errors", res.Errors,
	)
	return res, nil
}

// observation builds the store-bound observation for one extracted item.
func (h *Harvester) observation(item propwatch.RawListing, page int, at time.Time) *propwatch.Observation {
	return &propwatch.Observation{
		ID:           propwatch.ResolveListingID(item.URL, item.Raw),
		CanonicalURL: item.URL,
		Purpose:      h.Location.Purpose,
		Price:        item.Price,
		Location:     h.Location.Label(),
		PageNumber:   page,
		Position:     item.Position,
		ObservedAt:   at,
		RawItem:      item.Raw,
	}
}

// isKnown checks the Bloom cache before the store. A negative filter
// answer is authoritative; a positive one is confirmed against the store
// because of false positives.
func (h *Harvester) isKnown(ctx context.Context, id string) (bool, error) {
	if h.Seen != nil && !h.Seen.Test(id) {
		return false, nil
	}
	return h.Listings.ExistsListing(ctx, id)
}

// LoadSeenFilter builds a Bloom filter preloaded with every listing ID
// currently in the store, sized for expected growth. Incremental runs
// use it to answer most ExistsListing lookups without touching the
// store.
func LoadSeenFilter(ctx context.Context, svc propwatch.ListingService) (*bloom.Filter, error) {
	ids, err := svc.ListingIDs(ctx)
	if err != nil {
		return nil, err
	}
	size := uint(len(ids)) * 2
	if size < seenFilterSize {
		size = seenFilterSize
	}
	f := bloom.NewFilter(size, seenFilterFPRate)
	for _, id := range ids {
		f.Add(id)
	}
	return f, nil
}

func (h *Harvester) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.New(slog.DiscardHandler)
}
