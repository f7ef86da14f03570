package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendly/marketsnap/internal/domain"
)

func TestSnapshotCache_Lifecycle(t *testing.T) {
	sc := NewSnapshotCache()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	sc.SetClock(func() time.Time { return now })

	const ttl = 10 * time.Minute
	require.NoError(t, sc.Put(ctx, "k", []byte(`{"v":1}`), ttl))

	// Fresh read is a HIT.
	lookup, err := sc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, domain.CacheHit, lookup.Status)
	assert.Equal(t, []byte(`{"v":1}`), lookup.Entry.Payload)

	// Within [TTL, 2*TTL) the row is served STALE.
	now = base.Add(ttl + time.Minute)
	lookup, err = sc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, domain.CacheStale, lookup.Status)
	assert.Equal(t, []byte(`{"v":1}`), lookup.Entry.Payload)

	// At 2*TTL the row is a MISS and gets evicted.
	now = base.Add(2 * ttl)
	lookup, err = sc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, domain.CacheMiss, lookup.Status)
	assert.Equal(t, 0, sc.Len())
}

func TestSnapshotCache_SchemaVersionMismatchIsMiss(t *testing.T) {
	sc := NewSnapshotCache()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sc.SetClock(func() time.Time { return now })

	// A row written under a previous schema version, still well within TTL.
	sc.Seed(domain.CacheEntry{
		Key:           "k",
		Payload:       []byte(`{"v":"old"}`),
		CachedAt:      now.Add(-time.Minute),
		ExpiresAt:     now.Add(time.Hour),
		SchemaVersion: domain.SnapshotSchemaVersion - 1,
	})

	lookup, err := sc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, domain.CacheMiss, lookup.Status)
	assert.Equal(t, 0, sc.Len(), "schema-mismatched rows are evicted on read")
}

func TestSnapshotCache_GetMulti(t *testing.T) {
	sc := NewSnapshotCache()
	ctx := context.Background()

	require.NoError(t, sc.PutMulti(ctx, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}, time.Hour))

	out, err := sc.GetMulti(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Equal(t, domain.CacheHit, out["a"].Status)
	assert.Equal(t, domain.CacheHit, out["b"].Status)
	assert.Equal(t, domain.CacheMiss, out["missing"].Status)
}

func TestSnapshotCache_MissingKey(t *testing.T) {
	sc := NewSnapshotCache()
	lookup, err := sc.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, domain.CacheMiss, lookup.Status)
}
