package astrostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/lightcast/internal/domain/astro"
	"github.com/yanqian/lightcast/internal/domain/astrocache"
)

func entryAt(t time.Time) astrocache.Entry {
	return astrocache.Entry{Position: &astro.CelestialPosition{Target: astro.TargetSun, Instant: t}, ComputedAt: t}
}

func TestMemoryStoreGetPut(t *testing.T) {
	store, err := NewMemoryStore(0)
	require.NoError(t, err)
	ctx := context.Background()
	at := time.Date(2024, time.June, 21, 12, 0, 0, 0, time.UTC)

	_, ok, err := store.Get(ctx, "sun|a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put(ctx, "sun|a", entryAt(at)))
	got, ok, err := store.Get(ctx, "sun|a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, at, got.ComputedAt)
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()
	at := time.Date(2024, time.June, 21, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, "a", entryAt(at)))
	require.NoError(t, store.Put(ctx, "b", entryAt(at)))
	_, ok, _ := store.Get(ctx, "a")
	require.True(t, ok)
	require.NoError(t, store.Put(ctx, "c", entryAt(at)))

	_, ok, _ = store.Get(ctx, "b")
	require.False(t, ok)
	n, _ := store.Len(ctx)
	require.Equal(t, 2, n)
}

func TestMemoryStoreInvalidateAndCleanup(t *testing.T) {
	store, err := NewMemoryStore(16)
	require.NoError(t, err)
	ctx := context.Background()
	base := time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC)
	for i, key := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, store.Put(ctx, key, entryAt(base.Add(time.Duration(i)*time.Hour))))
	}

	removed, err := store.InvalidateOlderThan(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	removed, err = store.Cleanup(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, ok, _ := store.Get(ctx, "c")
	require.False(t, ok)
	_, ok, _ = store.Get(ctx, "e")
	require.True(t, ok)

	removed, err = store.Cleanup(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestNoopStore(t *testing.T) {
	var store NoopStore
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "a", astrocache.Entry{}))
	_, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)
}
