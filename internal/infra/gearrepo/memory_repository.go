package gearrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/lightcast/internal/domain/planner"
)

// MemoryRepository provides an in-memory equipment inventory for tests/dev.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]planner.Gear
}

var _ planner.EquipmentStore = (*MemoryRepository)(nil)

// NewMemoryRepository constructs a repository seeded with gear.
func NewMemoryRepository(seed ...planner.Gear) *MemoryRepository {
	r := &MemoryRepository{items: make(map[string]planner.Gear)}
	for _, g := range seed {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		r.items[g.ID] = g
	}
	return r
}

// Get returns planner.ErrNotFound for unknown ids.
func (r *MemoryRepository) Get(_ context.Context, id string) (planner.Gear, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.items[id]
	if !ok {
		return planner.Gear{}, planner.ErrNotFound
	}
	return g, nil
}

// Save inserts or replaces an equipment profile.
func (r *MemoryRepository) Save(_ context.Context, g planner.Gear) (planner.Gear, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	r.items[g.ID] = g
	return g, nil
}
