package cache

import (
	"context"
	"time"
)

// Noop implements Cache without storing anything. It is used when caching
// is disabled; every read misses and every write is discarded.
type Noop struct{}

// NewNoop creates a new Noop cache.
func NewNoop() *Noop {
	return &Noop{}
}

// Get always misses.
func (Noop) Get(_ context.Context, _ string) (Entry, bool, error) {
	return Entry{}, false, nil
}

// Set discards the entry.
func (Noop) Set(_ context.Context, _ string, _ Entry, _ time.Duration) error {
	return nil
}
