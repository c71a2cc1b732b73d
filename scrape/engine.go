package scrape

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/propwatch/propwatch"
	"golang.org/x/sync/errgroup"
)

// Engine defaults.
const (
	// DefaultBatchSize is how many pending listings a concurrent round
	// fetches before checking cooldown and cancellation.
	DefaultBatchSize = 50

	// DefaultExtractWorkers bounds CPU-bound extraction separately from
	// the network concurrency budget, so parsing cost cannot starve
	// network concurrency or vice versa.
	DefaultExtractWorkers = 10
)

// Engine consumes pending listings, fetches their detail pages, runs
// extraction and challenge classification, drives the cooldown machine,
// and persists outcomes.
//
// Concurrency <= 1 selects the sequential mode: one in-flight request,
// optional fixed delay between requests. Higher values select rounds of
// BatchSize listings fetched under an errgroup limit. One Engine value
// describes one run; it is not reused.
type Engine struct {
	Fetcher   propwatch.Fetcher
	Extractor propwatch.DetailExtractor
	Listings  propwatch.ListingService
	Details   propwatch.DetailService

	// Detector defaults to propwatch.NewChallengeDetector().
	Detector *propwatch.ChallengeDetector

	// Cooldown defaults to a machine with the mode-appropriate threshold.
	Cooldown *Cooldown

	// Snapshots, when set, archives each fetched detail page.
	Snapshots propwatch.SnapshotStore

	// Pacer spaces requests in sequential mode. Ignored by concurrent
	// rounds, which rely on the cooldown machine instead.
	Pacer *Pacer

	Logger *slog.Logger

	Concurrency    int
	ExtractWorkers int
	BatchSize      int

	// Limit caps how many pending listings the run handles; 0 means all.
	Limit int

	// Skip offsets into the pending set, for resuming a partial run.
	Skip int

	// Force re-fetches listings that already have a successful record:
	// the run draws from the full target set, scraped listings included,
	// and overwrites their records and scraped timestamps.
	Force bool

	extractSem chan struct{}
}

// EngineResult summarizes a detail-fetch run.
type EngineResult struct {
	RunID      string
	Status     RunStatus
	Processed  int
	Succeeded  int
	Failed     int
	Skipped    int
	Challenges int
	Cooldowns  int
}

// outcome is the per-listing verdict used for counter accounting.
type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSucceeded
	outcomeFailed
	outcomeChallenge
)

// Run executes the detail fetch. Per-item transport and extraction
// failures are persisted and never abort the run; only cancellation or
// a storage failure does. In-flight requests are allowed to finish on
// shutdown, so cancellation takes effect at item boundaries (sequential)
// or round boundaries (concurrent).
func (e *Engine) Run(ctx context.Context) (*EngineResult, error) {
	concurrency := e.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if e.Detector == nil {
		e.Detector = propwatch.NewChallengeDetector()
	}
	if e.Cooldown == nil {
		threshold := DefaultSequentialChallengeThreshold
		if concurrency > 1 {
			threshold = DefaultConcurrentChallengeThreshold
		}
		e.Cooldown = NewCooldown(threshold, DefaultInitialCooldown, DefaultCooldownMultiplier)
	}
	if concurrency > 1 {
		workers := e.ExtractWorkers
		if workers <= 0 {
			workers = DefaultExtractWorkers
		}
		e.extractSem = make(chan struct{}, workers)
	}

	res := &EngineResult{
		RunID:  uuid.New().String(),
		Status: StatusCompleted,
	}
	logger := e.logger().With("run_id", res.RunID, "concurrency", concurrency)
	logger.Info("detail fetch started",
		"batch_size", batchSize, "limit", e.Limit, "skip", e.Skip)

	startCycles := e.Cooldown.Cycles()
	skip := e.Skip

	for {
		if ctx.Err() != nil {
			res.Status = StatusCanceled
			break
		}

		n := batchSize
		if e.Limit > 0 {
			remaining := e.Limit - res.Processed
			if remaining <= 0 {
				break
			}
			if remaining < n {
				n = remaining
			}
		}

		batch, err := e.Listings.DetailTargets(ctx, n, skip, e.Force)
		if err != nil {
			return res, err
		}
		if len(batch) == 0 {
			break
		}

		var removed int
		if concurrency == 1 {
			removed, err = e.sequentialRound(ctx, batch, res, logger)
		} else {
			removed, err = e.concurrentRound(ctx, concurrency, batch, res, logger)
		}
		if err != nil {
			return res, err
		}
		if res.Status == StatusCanceled {
			break
		}

		if e.Force {
			// Forced runs draw from the full target set, which no outcome
			// shrinks, so every slot advances.
			skip += len(batch)
		} else {
			// Listings that succeeded or were healed left the pending set;
			// the rest (failures, challenges) still occupy their offsets.
			skip += len(batch) - removed
		}
	}

	res.Cooldowns = e.Cooldown.Cycles() - startCycles
	logger.Info("detail fetch finished",
		"status", res.Status,
		"processed", res.Processed,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"skipped", res.Skipped,
		"challenges", res.Challenges,
		"cooldowns", res.Cooldowns,
	)
	return res, nil
}

// sequentialRound processes a batch one listing at a time, pacing
// between requests and serving cooldowns as soon as they are due.
// Skips are resolved before pacing, so a mostly-scraped set drains
// without sleeping between items that issue no request.
func (e *Engine) sequentialRound(ctx context.Context, batch []*propwatch.Listing, res *EngineResult, logger *slog.Logger) (int, error) {
	removed := 0
	for _, l := range batch {
		if ctx.Err() != nil {
			res.Status = StatusCanceled
			return removed, nil
		}

		dctx := context.WithoutCancel(ctx)
		skipped, err := e.maybeSkip(dctx, l)
		if err != nil {
			return removed, err
		}
		if skipped {
			removed += applyOutcome(res, outcomeSkipped)
			continue
		}

		if err := e.Pacer.Wait(ctx); err != nil {
			res.Status = StatusCanceled
			return removed, nil
		}

		out, err := e.processListing(dctx, l, logger)
		if err != nil {
			return removed, err
		}
		removed += applyOutcome(res, out)

		if out == outcomeChallenge && e.Cooldown.Pending() {
			logger.Warn("challenge threshold reached, cooling down",
				"duration", e.Cooldown.Duration())
			if err := e.Cooldown.Wait(ctx); err != nil {
				res.Status = StatusCanceled
				return removed, nil
			}
		}
	}
	return removed, nil
}

// concurrentRound fetches a batch under the concurrency limit, fully
// drains it, then serves any cooldown before the caller starts the next
// round. The round runs on a cancel-detached context so that shutdown
// lets in-flight requests complete.
func (e *Engine) concurrentRound(ctx context.Context, concurrency int, batch []*propwatch.Listing, res *EngineResult, logger *slog.Logger) (int, error) {
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(concurrency)

	var mu sync.Mutex
	removed := 0

	for _, l := range batch {
		g.Go(func() error {
			skipped, err := e.maybeSkip(gctx, l)
			if err != nil {
				return err
			}
			out := outcomeSkipped
			if !skipped {
				out, err = e.processListing(gctx, l, logger)
				if err != nil {
					return err
				}
			}
			mu.Lock()
			removed += applyOutcome(res, out)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return removed, err
	}

	if e.Cooldown.Pending() {
		logger.Warn("challenge threshold reached, cooling down",
			"duration", e.Cooldown.Duration())
		if err := e.Cooldown.Wait(ctx); err != nil {
			res.Status = StatusCanceled
		}
	}
	return removed, nil
}

// applyOutcome updates the run counters and reports whether the listing
// left the pending set.
func applyOutcome(res *EngineResult, out outcome) int {
	res.Processed++
	switch out {
	case outcomeSkipped:
		res.Skipped++
		return 1
	case outcomeSucceeded:
		res.Succeeded++
		return 1
	case outcomeFailed:
		res.Failed++
	case outcomeChallenge:
		res.Challenges++
	}
	return 0
}

// maybeSkip reports whether the listing already has a successful record
// and needs no fetch. The scraped flag is healed with the record's own
// timestamp, covering a crash between the record write and the mark.
func (e *Engine) maybeSkip(ctx context.Context, l *propwatch.Listing) (bool, error) {
	if e.Force {
		return false, nil
	}
	rec, err := e.Details.FindDetailByListingID(ctx, l.ID)
	if propwatch.ErrorCode(err) == propwatch.ENOTFOUND {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !rec.ExtractionSuccess {
		return false, nil
	}
	if err := e.Listings.MarkDetailScraped(ctx, l.ID, rec.ScrapedAt); err != nil {
		return false, err
	}
	return true, nil
}

// processListing runs the per-item procedure past the skip check.
// Transport and extraction failures become persisted records and a
// non-success outcome; only storage errors are returned, and they abort
// the run.
func (e *Engine) processListing(ctx context.Context, l *propwatch.Listing, logger *slog.Logger) (outcome, error) {
	body, err := e.Fetcher.Fetch(ctx, l.CanonicalURL)
	if err != nil {
		// Transport failures never enter the challenge accounting and the
		// listing remains retryable on a future run.
		logger.Warn("detail fetch failed", "listing_id", l.ID, "err", err)
		rec := &propwatch.DetailRecord{
			ListingID: l.ID,
			URL:       l.CanonicalURL,
			Error:     err.Error(),
			ScrapedAt: time.Now().UTC(),
		}
		if serr := e.Details.SaveDetail(ctx, rec); serr != nil {
			return 0, serr
		}
		return outcomeFailed, nil
	}

	if e.Snapshots != nil {
		if err := e.Snapshots.SaveDetail(ctx, l.ID, body); err != nil {
			logger.Warn("detail snapshot failed", "listing_id", l.ID, "err", err)
		}
	}

	fields, err := e.extract(ctx, body)
	if err != nil {
		// A parse failure is not automatically a challenge.
		logger.Warn("detail extraction failed", "listing_id", l.ID, "err", err)
		rec := &propwatch.DetailRecord{
			ListingID: l.ID,
			URL:       l.CanonicalURL,
			Error:     err.Error(),
			ScrapedAt: time.Now().UTC(),
		}
		if serr := e.Details.SaveDetail(ctx, rec); serr != nil {
			return 0, serr
		}
		return outcomeFailed, nil
	}

	if e.Detector.Classify(body, fields) == propwatch.ClassChallenge {
		logger.Warn("bot challenge detected",
			"listing_id", l.ID, "consecutive", e.Cooldown.Consecutive()+1)
		rec := &propwatch.DetailRecord{
			ListingID:     l.ID,
			URL:           l.CanonicalURL,
			BotChallenge:  true,
			ExtractedData: fields,
			ScrapedAt:     time.Now().UTC(),
		}
		if serr := e.Details.SaveDetail(ctx, rec); serr != nil {
			return 0, serr
		}
		e.Cooldown.Observe(propwatch.ClassChallenge)
		return outcomeChallenge, nil
	}

	e.Cooldown.Observe(propwatch.ClassNormal)
	rec := &propwatch.DetailRecord{
		ListingID:         l.ID,
		URL:               l.CanonicalURL,
		ExtractionSuccess: true,
		ExtractedData:     fields,
		ScrapedAt:         time.Now().UTC(),
	}
	if err := e.Details.SaveDetail(ctx, rec); err != nil {
		return 0, err
	}
	if err := e.Listings.MarkDetailScraped(ctx, l.ID, rec.ScrapedAt); err != nil {
		return 0, err
	}
	logger.Info("detail scraped", "listing_id", l.ID)
	return outcomeSucceeded, nil
}

// extract runs the extractor, bounded by the worker semaphore in
// concurrent mode.
func (e *Engine) extract(ctx context.Context, html string) (map[string]any, error) {
	if e.extractSem != nil {
		select {
		case e.extractSem <- struct{}{}:
			defer func() { <-e.extractSem }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return e.Extractor.ExtractDetail(html)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}
