// Package cache defines the TTL cache port used by the enrichment pipeline
// and its Redis, in-memory, and no-op implementations.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// KeyPrefix namespaces every film cache key so the entries can coexist with
// other tenants of the same Redis instance.
const KeyPrefix = "cineplexx:film:"

// Entry is the value stored per film URL. A non-empty Description marks a
// successful fetch; a non-empty Error marks a confirmed-empty fetch held
// under the shorter negative TTL.
type Entry struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
	Source      string    `json:"source"`
	Error       string    `json:"error,omitempty"`
}

// Negative reports whether the entry is a negative marker.
func (e Entry) Negative() bool {
	return e.Error != ""
}

// Usable reports whether the entry can satisfy a lookup without a fetch.
func (e Entry) Usable() bool {
	return e.Description != "" || e.Negative()
}

// Cache is the key/value port consumed by the enrichment pipeline. Get
// returns (entry, true, nil) on a hit and (zero, false, nil) on a clean
// miss; errors are reported separately so callers can downgrade them.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
}

// Key derives the deterministic, namespaced cache key for a film URL.
// The same URL always yields the same key, across runs and processes.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return KeyPrefix + hex.EncodeToString(sum[:])
}
