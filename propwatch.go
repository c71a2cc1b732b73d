// Package propwatch continuously discovers listings on a real-estate
// site, maintains a deduplicated append-only history of where and when
// each listing was observed, and fetches listing detail pages while
// defending against anti-bot challenges with an escalating cooldown.
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., sqlite/,
// goquery/, http/); orchestration lives in scrape/.
package propwatch
