package astrostore

import (
	"context"
	"time"

	"github.com/yanqian/lightcast/internal/domain/astrocache"
)

// NoopStore never retains anything; every lookup recomputes.
type NoopStore struct{}

func (NoopStore) Get(context.Context, string) (astrocache.Entry, bool, error) {
	return astrocache.Entry{}, false, nil
}

func (NoopStore) Put(context.Context, string, astrocache.Entry) error { return nil }

func (NoopStore) InvalidateOlderThan(context.Context, time.Time) (int, error) { return 0, nil }

func (NoopStore) Cleanup(context.Context, int) (int, error) { return 0, nil }

func (NoopStore) Len(context.Context) (int, error) { return 0, nil }

var _ astrocache.Store = NoopStore{}
