package astrocache

import (
	"context"
	"time"

	"github.com/yanqian/lightcast/internal/domain/astro"
)

// Entry is one cached computation. Exactly one payload field is set.
type Entry struct {
	Position   *astro.CelestialPosition `json:"position,omitempty"`
	SunTimes   *astro.SunTimes          `json:"sunTimes,omitempty"`
	Phase      *astro.MoonPhase         `json:"phase,omitempty"`
	ComputedAt time.Time                `json:"computedAt"`
}

// Store persists cache entries. Implementations must be safe for concurrent
// use; the cache tolerates any of these calls failing.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, entry Entry) error
	// InvalidateOlderThan removes entries computed before t.
	InvalidateOlderThan(ctx context.Context, t time.Time) (int, error)
	// Cleanup keeps the keep most recently computed entries.
	Cleanup(ctx context.Context, keep int) (int, error)
	Len(ctx context.Context) (int, error)
}
