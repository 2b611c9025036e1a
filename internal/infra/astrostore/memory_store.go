package astrostore

import (
	"context"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yanqian/lightcast/internal/domain/astrocache"
)

// DefaultCapacity bounds the in-process store.
const DefaultCapacity = 4096

// MemoryStore keeps entries in a size-bound LRU inside the process.
type MemoryStore struct {
	entries *lru.Cache[string, astrocache.Entry]
}

// NewMemoryStore constructs an LRU store; capacity <= 0 uses DefaultCapacity.
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, astrocache.Entry](capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{entries: entries}, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (astrocache.Entry, bool, error) {
	entry, ok := s.entries.Get(key)
	return entry, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, entry astrocache.Entry) error {
	s.entries.Add(key, entry)
	return nil
}

func (s *MemoryStore) InvalidateOlderThan(_ context.Context, t time.Time) (int, error) {
	removed := 0
	for _, key := range s.entries.Keys() {
		entry, ok := s.entries.Peek(key)
		if ok && entry.ComputedAt.Before(t) && s.entries.Remove(key) {
			removed++
		}
	}
	return removed, nil
}

// Cleanup drops everything but the keep most recently computed entries.
func (s *MemoryStore) Cleanup(_ context.Context, keep int) (int, error) {
	type aged struct {
		key string
		at  time.Time
	}
	keep = max(keep, 0)
	keys := s.entries.Keys()
	if len(keys) <= keep {
		return 0, nil
	}
	items := make([]aged, 0, len(keys))
	for _, key := range keys {
		if entry, ok := s.entries.Peek(key); ok {
			items = append(items, aged{key: key, at: entry.ComputedAt})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].at.After(items[j].at) })
	removed := 0
	for _, item := range items[min(keep, len(items)):] {
		if s.entries.Remove(item.key) {
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Len(context.Context) (int, error) {
	return s.entries.Len(), nil
}

var _ astrocache.Store = (*MemoryStore)(nil)
