package main

import (
	"fmt"
	"time"

	"github.com/propwatch/propwatch"
	"github.com/propwatch/propwatch/scrape"
)

// Run executes the harvest command.
func (c *HarvestCmd) Run(deps *Dependencies) error {
	location := propwatch.LocationContext{
		City:        c.City,
		Sublocation: c.Sublocation,
		URLTemplate: c.URLTemplate,
		Purpose:     propwatch.Purpose(c.Purpose),
	}
	if err := location.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propwatch.ErrorMessage(err))
		return err
	}

	h := &scrape.Harvester{
		Fetcher:       deps.Fetcher,
		Extractor:     deps.ListingExtractor,
		Listings:      deps.Listings,
		Location:      location,
		Snapshots:     deps.Snapshots,
		Pacer:         scrape.NewPacer(time.Duration(c.Delay) * time.Second),
		Logger:        deps.Logger,
		Incremental:   c.Incremental,
		MaxPages:      c.MaxPages,
		KnownRunLimit: c.KnownRunLimit,
	}

	if c.Incremental {
		seen, err := scrape.LoadSeenFilter(deps.Ctx, deps.Listings)
		if err != nil {
			return err
		}
		h.Seen = seen
	}

	res, err := h.Run(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propwatch.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Harvest %s (%s)\n", res.Status, location.Label())
	if res.Reason != "" {
		fmt.Fprintf(deps.Stdout, "  stop reason: %s\n", res.Reason)
	}
	fmt.Fprintf(deps.Stdout, "  pages: %d\n", res.Pages)
	fmt.Fprintf(deps.Stdout, "  observed: %d\n", res.Observed)
	fmt.Fprintf(deps.Stdout, "  new: %d\n", res.New)
	fmt.Fprintf(deps.Stdout, "  known: %d\n", res.Known)
	fmt.Fprintf(deps.Stdout, "  errors: %d\n", res.Errors)
	return nil
}
