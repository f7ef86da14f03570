package domain

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// CacheStatus classifies a cache read against the entry lifecycle:
// HIT while age < TTL, STALE while TTL <= age < 2*TTL (serve the old payload
// and refresh asynchronously), MISS at or beyond 2*TTL, on schema-version
// mismatch, or when the row is absent.
type CacheStatus string

const (
	CacheHit   CacheStatus = "HIT"
	CacheStale CacheStatus = "STALE"
	CacheMiss  CacheStatus = "MISS"
)

// CacheEntry is the versioned envelope stored in the snapshot cache. The
// schema version travels inside the payload envelope as well as inside the
// key, so both paths invalidate on a version bump.
type CacheEntry struct {
	Key           string    `json:"key"`
	Payload       []byte    `json:"payload"`
	CachedAt      time.Time `json:"cached_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	SchemaVersion int       `json:"schema_version"`
}

// CacheLookup is one result of a bulk cache read.
type CacheLookup struct {
	Entry  CacheEntry
	Status CacheStatus
	Age    time.Duration
}

// SnapshotCache is the versioned key/value store with TTL and
// stale-while-revalidate semantics. Writes are best-effort: implementations
// log failures and never surface them on the request path.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (CacheLookup, error)
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	GetMulti(ctx context.Context, keys []string) (map[string]CacheLookup, error)
	PutMulti(ctx context.Context, entries map[string][]byte, ttl time.Duration) error
}

// ClassifyEntry applies the entry lifecycle to a stored row at the given
// read time. Implementations share it so HIT/STALE/MISS semantics cannot
// drift between backends.
func ClassifyEntry(entry CacheEntry, now time.Time) (CacheStatus, time.Duration) {
	age := now.Sub(entry.CachedAt)
	if entry.SchemaVersion != SnapshotSchemaVersion {
		return CacheMiss, age
	}
	ttl := entry.ExpiresAt.Sub(entry.CachedAt)
	if ttl <= 0 {
		return CacheMiss, age
	}
	switch {
	case age < ttl:
		return CacheHit, age
	case age < 2*ttl:
		return CacheStale, age
	default:
		return CacheMiss, age
	}
}

// SnapshotKey builds the composite cache key for one aggregation input. The
// query is normalized (lowercased, whitespace collapsed) so that trivially
// different spellings of the same keyword share an entry.
func SnapshotKey(marketplace, inputType, query string, page int) string {
	var b strings.Builder
	b.WriteString("snapshot:")
	b.WriteString(strings.ToLower(strings.TrimSpace(marketplace)))
	b.WriteByte(':')
	b.WriteString(inputType)
	b.WriteByte(':')
	b.WriteString(NormalizeQuery(query))
	b.WriteString(":p")
	b.WriteString(strconv.Itoa(page))
	b.WriteString(":v")
	b.WriteString(strconv.Itoa(SnapshotSchemaVersion))
	return b.String()
}

// NormalizeQuery lowercases a keyword and collapses interior whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
