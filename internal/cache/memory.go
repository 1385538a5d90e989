package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process TTL cache for development and tests. Expired
// entries are dropped lazily on read.
type Memory struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	entry    Entry
	expireAt time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the live entry stored under key, if any.
func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	stored, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return Entry{}, false, nil
	}
	if m.now().After(stored.expireAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return Entry{}, false, nil
	}
	return stored.entry, true, nil
}

// Set stores the entry under key until the TTL elapses.
func (m *Memory) Set(_ context.Context, key string, entry Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		entry:    entry,
		expireAt: m.now().Add(ttl),
	}
	return nil
}
