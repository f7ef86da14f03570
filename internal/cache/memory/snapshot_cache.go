// Package memory provides an in-process SnapshotCache used by tests and by
// cache-less development runs. It mirrors the redis implementation's
// lifecycle behavior exactly via domain.ClassifyEntry.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ascendly/marketsnap/internal/domain"
)

// SnapshotCache is a map-backed domain.SnapshotCache.
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
	clock   func() time.Time
}

// NewSnapshotCache creates an empty in-memory cache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		entries: make(map[string]domain.CacheEntry),
		clock:   time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (sc *SnapshotCache) SetClock(clock func() time.Time) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.clock = clock
}

// Get classifies the stored row as HIT, STALE, or MISS. Rows classified MISS
// are evicted lazily, matching the redis backend.
func (sc *SnapshotCache) Get(_ context.Context, key string) (domain.CacheLookup, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	entry, ok := sc.entries[key]
	if !ok {
		return domain.CacheLookup{Status: domain.CacheMiss}, nil
	}

	status, age := domain.ClassifyEntry(entry, sc.clock().UTC())
	if status == domain.CacheMiss {
		delete(sc.entries, key)
		return domain.CacheLookup{Status: domain.CacheMiss, Age: age}, nil
	}
	return domain.CacheLookup{Entry: entry, Status: status, Age: age}, nil
}

// GetMulti classifies many keys at once.
func (sc *SnapshotCache) GetMulti(ctx context.Context, keys []string) (map[string]domain.CacheLookup, error) {
	out := make(map[string]domain.CacheLookup, len(keys))
	for _, key := range keys {
		lookup, err := sc.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		out[key] = lookup
	}
	return out, nil
}

// Put stores a payload under key with the given logical TTL.
func (sc *SnapshotCache) Put(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	now := sc.clock().UTC()
	sc.entries[key] = domain.CacheEntry{
		Key:           key,
		Payload:       payload,
		CachedAt:      now,
		ExpiresAt:     now.Add(ttl),
		SchemaVersion: domain.SnapshotSchemaVersion,
	}
	return nil
}

// PutMulti stores many payloads with one lock acquisition.
func (sc *SnapshotCache) PutMulti(_ context.Context, entries map[string][]byte, ttl time.Duration) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	now := sc.clock().UTC()
	for key, payload := range entries {
		sc.entries[key] = domain.CacheEntry{
			Key:           key,
			Payload:       payload,
			CachedAt:      now,
			ExpiresAt:     now.Add(ttl),
			SchemaVersion: domain.SnapshotSchemaVersion,
		}
	}
	return nil
}

// Len reports the number of live rows. Test helper.
func (sc *SnapshotCache) Len() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.entries)
}

// Seed inserts a fully specified entry, bypassing Put's versioning. Test
// helper for schema-mismatch cases.
func (sc *SnapshotCache) Seed(entry domain.CacheEntry) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entries[entry.Key] = entry
}
