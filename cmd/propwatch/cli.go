package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/propwatch/propwatch"
	"github.com/propwatch/propwatch/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx              context.Context
	Stdout           io.Writer
	Stderr           io.Writer
	Logger           *slog.Logger
	DB               *sqlite.DB
	Listings         propwatch.ListingService
	Details          propwatch.DetailService
	Fetcher          propwatch.Fetcher
	ListingExtractor propwatch.ListingExtractor
	DetailExtractor  propwatch.DetailExtractor
	Snapshots        propwatch.SnapshotStore
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging"`

	Harvest HarvestCmd `cmd:"" help:"Crawl a listing feed and upsert discovered listings"`
	Details DetailsCmd `cmd:"" help:"Fetch detail pages for pending listings"`
	Status  StatusCmd  `cmd:"" help:"Show store counts and pending work"`
}

// HarvestCmd is the "harvest" subcommand.
type HarvestCmd struct {
	URLTemplate string `arg:"" help:"Paginated feed URL with a %d page placeholder"`

	City          string `help:"City label recorded on observations"`
	Sublocation   string `help:"Sublocation label recorded on observations"`
	Purpose       string `default:"for-sale" enum:"for-sale,for-rent" help:"Listing purpose"`
	Incremental   bool   `short:"i" help:"Stop after a run of consecutive already-known listings"`
	MaxPages      int    `default:"50" help:"Page cap for the run"`
	KnownRunLimit int    `default:"2" help:"Consecutive-known threshold for incremental runs"`
	Delay         int    `default:"2" help:"Seconds between page requests"`
	SaveHTML      string `name:"save-html" help:"Directory to archive fetched pages (off when empty)"`
}

// DetailsCmd is the "details" subcommand.
type DetailsCmd struct {
	Concurrency int    `short:"c" default:"1" help:"Concurrent fetch limit (1 = sequential)"`
	BatchSize   int    `default:"50" help:"Listings per round in concurrent mode"`
	Limit       int    `short:"l" help:"Cap on listings to process (0 = all)"`
	Skip        int    `help:"Offset into the pending set"`
	Force       bool   `short:"f" help:"Re-fetch listings that already have a successful record"`
	Delay       int    `default:"1" help:"Seconds between requests in sequential mode"`
	SaveHTML    string `name:"save-html" help:"Directory to archive fetched pages (off when empty)"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}
