package locationrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/lightcast/internal/domain/lightpredict"
	"github.com/yanqian/lightcast/internal/domain/planner"
)

// MemoryRepository keeps locations and calibration readings in process.
type MemoryRepository struct {
	mu           sync.RWMutex
	locations    map[string]planner.Location
	calibrations map[string][]lightpredict.Calibration
}

var (
	_ planner.LocationStore    = (*MemoryRepository)(nil)
	_ planner.CalibrationStore = (*MemoryRepository)(nil)
)

// NewMemoryRepository seeds the repository with the given locations.
func NewMemoryRepository(seed ...planner.Location) *MemoryRepository {
	r := &MemoryRepository{
		locations:    make(map[string]planner.Location),
		calibrations: make(map[string][]lightpredict.Calibration),
	}
	for _, l := range seed {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		r.locations[l.ID] = l
	}
	return r
}

// Get returns planner.ErrNotFound for unknown ids.
func (r *MemoryRepository) Get(_ context.Context, id string) (planner.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.locations[id]
	if !ok {
		return planner.Location{}, planner.ErrNotFound
	}
	return l, nil
}

// List returns locations ordered by name.
func (r *MemoryRepository) List(_ context.Context) ([]planner.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]planner.Location, 0, len(r.locations))
	for _, l := range r.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Save inserts or replaces a location, assigning an id when missing.
func (r *MemoryRepository) Save(_ context.Context, l planner.Location) (planner.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	r.locations[l.ID] = l
	return l, nil
}

// LatestCalibration returns the most recent reading by MeasuredAt.
func (r *MemoryRepository) LatestCalibration(_ context.Context, locationID string) (lightpredict.Calibration, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	readings := r.calibrations[locationID]
	if len(readings) == 0 {
		return lightpredict.Calibration{}, false, nil
	}
	latest := readings[0]
	for _, c := range readings[1:] {
		if c.MeasuredAt.After(latest.MeasuredAt) {
			latest = c
		}
	}
	return latest, true, nil
}

// SaveCalibration appends a reading. Unknown locations are rejected.
func (r *MemoryRepository) SaveCalibration(_ context.Context, locationID string, c lightpredict.Calibration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locations[locationID]; !ok {
		return planner.ErrNotFound
	}
	r.calibrations[locationID] = append(r.calibrations[locationID], c)
	return nil
}
