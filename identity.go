package propwatch

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/cespare/xxhash/v2"
)

// detailIDPattern matches the numeric listing ID embedded in detail URLs,
// e.g. ".../details-1234567.html".
var detailIDPattern = regexp.MustCompile(`details-(\d+)\.html`)

// SyntheticIDPrefix namespaces hash-derived IDs apart from natural
// (numeric) IDs so the two can never collide.
const SyntheticIDPrefix = "hash_"

// identityMaxBytes bounds the input to the hash fallback.
const identityMaxBytes = 256

// ResolveListingID derives the stable identifier for a discovered item.
// If the canonical URL carries a natural ID it is used as-is; otherwise
// the ID is a prefixed hash of the best-available identifying string
// (the URL if present, else the serialized raw item) truncated to 256
// bytes. The function is pure and deterministic: identical input always
// yields the identical ID, which makes re-crawls idempotent.
func ResolveListingID(canonicalURL string, raw json.RawMessage) string {
	if m := detailIDPattern.FindStringSubmatch(canonicalURL); m != nil {
		return m[1]
	}

	base := canonicalURL
	if base == "" {
		base = string(raw)
	}
	if len(base) > identityMaxBytes {
		base = base[:identityMaxBytes]
	}
	return fmt.Sprintf("%s%016x", SyntheticIDPrefix, xxhash.Sum64String(base))
}
