package main

import (
	"fmt"

	"github.com/propwatch/propwatch"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	total, err := deps.Listings.CountListings(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propwatch.ErrorMessage(err))
		return err
	}
	pending, err := deps.Listings.CountPendingDetails(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propwatch.ErrorMessage(err))
		return err
	}
	scraped, err := deps.Details.CountSuccessfulDetails(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propwatch.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "listings: %d\n", total)
	fmt.Fprintf(deps.Stdout, "pending details: %d\n", pending)
	fmt.Fprintf(deps.Stdout, "scraped details: %d\n", scraped)
	return nil
}
