package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ascendly/marketsnap/internal/domain"
)

// SnapshotCache implements domain.SnapshotCache using Redis string values
// holding JSON-serialized CacheEntry envelopes.
//
// Rows are written with a physical Redis TTL of twice the logical TTL, so the
// STALE window remains readable and anything beyond it is evicted by Redis
// itself. Schema-mismatched rows are deleted lazily on read.
type SnapshotCache struct {
	rdb    *redis.Client
	clock  func() time.Time
	logger *slog.Logger
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client, logger *slog.Logger) *SnapshotCache {
	return &SnapshotCache{
		rdb:    c.Underlying(),
		clock:  time.Now,
		logger: logger.With(slog.String("component", "snapshot_cache")),
	}
}

// Get retrieves one entry and classifies it as HIT, STALE, or MISS.
// An absent row is a MISS, not an error.
func (sc *SnapshotCache) Get(ctx context.Context, key string) (domain.CacheLookup, error) {
	data, err := sc.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.CacheLookup{Status: domain.CacheMiss}, nil
		}
		return domain.CacheLookup{Status: domain.CacheMiss}, fmt.Errorf("redis: get %s: %w", key, err)
	}

	return sc.classify(ctx, key, data), nil
}

// GetMulti retrieves many keys in one MGET. Keys that are absent or
// classified MISS appear in the result map with Status MISS.
func (sc *SnapshotCache) GetMulti(ctx context.Context, keys []string) (map[string]domain.CacheLookup, error) {
	out := make(map[string]domain.CacheLookup, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	vals, err := sc.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: mget %d keys: %w", len(keys), err)
	}

	for i, v := range vals {
		key := keys[i]
		s, ok := v.(string)
		if !ok {
			out[key] = domain.CacheLookup{Status: domain.CacheMiss}
			continue
		}
		out[key] = sc.classify(ctx, key, []byte(s))
	}
	return out, nil
}

// Put stores a payload under key with the given logical TTL. Failures are the
// caller's to log; the service layer treats writes as fire-and-forget.
func (sc *SnapshotCache) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	entry, data, err := sc.envelope(key, payload, ttl)
	if err != nil {
		return err
	}

	if err := sc.rdb.Set(ctx, key, data, 2*ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", entry.Key, err)
	}
	return nil
}

// PutMulti stores many payloads in one pipelined transaction.
func (sc *SnapshotCache) PutMulti(ctx context.Context, entries map[string][]byte, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := sc.rdb.TxPipeline()
	for key, payload := range entries {
		_, data, err := sc.envelope(key, payload, ttl)
		if err != nil {
			return err
		}
		pipe.Set(ctx, key, data, 2*ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set %d entries: %w", len(entries), err)
	}
	return nil
}

func (sc *SnapshotCache) envelope(key string, payload []byte, ttl time.Duration) (domain.CacheEntry, []byte, error) {
	now := sc.clock().UTC()
	entry := domain.CacheEntry{
		Key:           key,
		Payload:       payload,
		CachedAt:      now,
		ExpiresAt:     now.Add(ttl),
		SchemaVersion: domain.SnapshotSchemaVersion,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return domain.CacheEntry{}, nil, fmt.Errorf("redis: marshal entry %s: %w", key, err)
	}
	return entry, data, nil
}

// classify decodes a stored envelope and applies the entry lifecycle. Rows
// that decode badly or belong to an older schema are deleted lazily.
func (sc *SnapshotCache) classify(ctx context.Context, key string, data []byte) domain.CacheLookup {
	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		sc.logger.Warn("evicting undecodable cache row",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		sc.evict(ctx, key)
		return domain.CacheLookup{Status: domain.CacheMiss}
	}

	status, age := domain.ClassifyEntry(entry, sc.clock().UTC())
	if status == domain.CacheMiss {
		sc.evict(ctx, key)
		return domain.CacheLookup{Status: domain.CacheMiss, Age: age}
	}
	return domain.CacheLookup{Entry: entry, Status: status, Age: age}
}

func (sc *SnapshotCache) evict(ctx context.Context, key string) {
	if err := sc.rdb.Del(ctx, key).Err(); err != nil {
		sc.logger.Warn("lazy eviction failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
