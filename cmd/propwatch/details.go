package main

import (
	"fmt"
	"time"

	"github.com/propwatch/propwatch"
	"github.com/propwatch/propwatch/scrape"
)

// Run executes the details command.
func (c *DetailsCmd) Run(deps *Dependencies) error {
	e := &scrape.Engine{
		Fetcher:     deps.Fetcher,
		Extractor:   deps.DetailExtractor,
		Listings:    deps.Listings,
		Details:     deps.Details,
		Snapshots:   deps.Snapshots,
		Pacer:       scrape.NewPacer(time.Duration(c.Delay) * time.Second),
		Logger:      deps.Logger,
		Concurrency: c.Concurrency,
		BatchSize:   c.BatchSize,
		Limit:       c.Limit,
		Skip:        c.Skip,
		Force:       c.Force,
	}

	res, err := e.Run(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propwatch.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Detail fetch %s\n", res.Status)
	fmt.Fprintf(deps.Stdout, "  processed: %d\n", res.Processed)
	fmt.Fprintf(deps.Stdout, "  succeeded: %d\n", res.Succeeded)
	fmt.Fprintf(deps.Stdout, "  failed: %d\n", res.Failed)
	fmt.Fprintf(deps.Stdout, "  skipped: %d\n", res.Skipped)
	fmt.Fprintf(deps.Stdout, "  challenges: %d\n", res.Challenges)
	fmt.Fprintf(deps.Stdout, "  cooldowns: %d\n", res.Cooldowns)
	return nil
}
