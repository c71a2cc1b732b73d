// Package fs provides filesystem-backed archival of raw fetched HTML.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/propwatch/propwatch"
)

// Ensure SnapshotStore implements propwatch.SnapshotStore at compile time.
var _ propwatch.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore archives fetched pages under a base directory: feed
// pages under pages/, detail pages under details/. Filenames carry a
// date stamp so successive daily runs don't overwrite each other.
type SnapshotStore struct {
	baseDir string

	// now is swappable for tests.
	now func() time.Time
}

// NewSnapshotStore creates a SnapshotStore rooted at baseDir.
func NewSnapshotStore(baseDir string) *SnapshotStore {
	return &SnapshotStore{
		baseDir: baseDir,
		now:     time.Now,
	}
}

// SavePage archives a listing feed page.
func (s *SnapshotStore) SavePage(ctx context.Context, location string, page int, html string) error {
	name := fmt.Sprintf("%s_page_%03d_%s.html",
		sanitize(location), page, s.now().UTC().Format("2006-01-02"))
	return s.write(filepath.Join(s.baseDir, "pages", name), html)
}

// SaveDetail archives a listing detail page.
func (s *SnapshotStore) SaveDetail(ctx context.Context, listingID string, html string) error {
	name := fmt.Sprintf("property_%s.html", sanitize(listingID))
	return s.write(filepath.Join(s.baseDir, "details", name), html)
}

func (s *SnapshotStore) write(path, html string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(html), 0644)
}

// sanitize maps a label to a filesystem-safe name.
func sanitize(label string) string {
	repl := strings.NewReplacer("/", "_", "\\", "_", " ", "-", ":", "_")
	return repl.Replace(label)
}
