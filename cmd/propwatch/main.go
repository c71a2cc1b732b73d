package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/propwatch/propwatch"
	"github.com/propwatch/propwatch/fs"
	"github.com/propwatch/propwatch/goquery"
	propwatchhttp "github.com/propwatch/propwatch/http"
	propwatchslog "github.com/propwatch/propwatch/slog"
	"github.com/propwatch/propwatch/sqlite"
)

func main() {
	// Ctrl-C requests a graceful stop: runs finish their in-flight work
	// and report a canceled status.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	ListingService propwatch.ListingService
	DetailService  propwatch.DetailService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("propwatch"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'propwatch --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set PROPWATCH_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	m.ListingService = propwatchslog.NewLoggingListingService(sqlite.NewListingService(m.DB), deps.Logger)
	m.DetailService = sqlite.NewDetailService(m.DB)
	deps.DB = m.DB
	deps.Listings = m.ListingService
	deps.Details = m.DetailService
	deps.ListingExtractor = goquery.NewListingExtractor()
	deps.DetailExtractor = goquery.NewDetailExtractor()

	// Harvest runs retry transient transport errors; the detail engine
	// records them as failures instead, so its fetcher stays retry-free.
	switch cmd {
	case "harvest":
		fetcher := propwatchhttp.NewFetcher(
			propwatchhttp.WithRetries(2, 2*time.Second),
		)
		deps.Fetcher = propwatchslog.NewLoggingFetcher(fetcher, deps.Logger)
		defer deps.Fetcher.Close()
	case "details":
		deps.Fetcher = propwatchslog.NewLoggingFetcher(propwatchhttp.NewFetcher(), deps.Logger)
		defer deps.Fetcher.Close()
	}

	if dir := saveHTMLDir(cli, cmd); dir != "" {
		deps.Snapshots = fs.NewSnapshotStore(dir)
	}

	return kongCtx.Run(deps)
}

// saveHTMLDir returns the snapshot directory requested for the command,
// empty when archiving is off.
func saveHTMLDir(cli *CLI, cmd string) string {
	switch cmd {
	case "harvest":
		return cli.Harvest.SaveHTML
	case "details":
		return cli.Details.SaveHTML
	}
	return ""
}

func defaultDBPath() string {
	if path := os.Getenv("PROPWATCH_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "propwatch.db"
	}
	dir := filepath.Join(home, ".propwatch")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "propwatch.db")
}
