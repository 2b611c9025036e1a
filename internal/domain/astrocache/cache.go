package astrocache

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/lightcast/internal/domain/astro"
	apperrors "github.com/yanqian/lightcast/pkg/errors"
	"github.com/yanqian/lightcast/pkg/metrics"
)

// Config tunes key precision and preload fan-out.
type Config struct {
	Precision          int
	PreloadConcurrency int
	MaxPreloadDays     int
}

const (
	defaultPrecision          = 4
	defaultPreloadConcurrency = 4
	defaultMaxPreloadDays     = 31
)

// Cache memoizes ephemeris results in a Store. It never stores a failed
// computation and treats store errors as misses.
type Cache struct {
	calc     astro.Calculator
	store    Store
	cfg      Config
	keys     keyer
	logger   *slog.Logger
	counters metrics.CacheCounters
	now      func() time.Time
}

// NewCache wires a calculator to a store.
func NewCache(calc astro.Calculator, store Store, cfg Config, logger *slog.Logger) *Cache {
	if cfg.Precision <= 0 {
		cfg.Precision = defaultPrecision
	}
	if cfg.PreloadConcurrency <= 0 {
		cfg.PreloadConcurrency = defaultPreloadConcurrency
	}
	if cfg.MaxPreloadDays <= 0 {
		cfg.MaxPreloadDays = defaultMaxPreloadDays
	}
	return &Cache{
		calc:   calc,
		store:  store,
		cfg:    cfg,
		keys:   keyer{precision: cfg.Precision},
		logger: logger.With("component", "astrocache"),
		now:    time.Now,
	}
}

// Position returns the cached position of target, computing it on a miss.
func (c *Cache) Position(ctx context.Context, target astro.Target, m astro.GeoMoment) (astro.CelestialPosition, error) {
	if err := m.Validate(); err != nil {
		c.counters.Fail()
		return astro.CelestialPosition{}, err
	}
	m = c.keys.normalize(m)
	entry, err := c.readThrough(ctx, c.keys.position(target, m),
		func(e Entry) bool { return e.Position != nil },
		func() (Entry, error) {
			pos, err := c.calc.Position(target, m)
			return Entry{Position: &pos}, err
		})
	if err != nil {
		return astro.CelestialPosition{}, err
	}
	return localizePosition(*entry.Position, m.Location), nil
}

// SunTimes returns cached solar events for the calendar date of date.
func (c *Cache) SunTimes(ctx context.Context, date time.Time, lat, lon float64, loc *time.Location) (astro.SunTimes, error) {
	if err := astro.ValidateCoordinates(lat, lon); err != nil {
		c.counters.Fail()
		return astro.SunTimes{}, err
	}
	if loc == nil {
		c.counters.Fail()
		return astro.SunTimes{}, apperrors.Wrap(apperrors.CodeInvalidInput, "time zone is required", nil)
	}
	lat, lon = c.keys.round(lat), c.keys.round(lon)
	entry, err := c.readThrough(ctx, c.keys.sunTimes(date, lat, lon, loc),
		func(e Entry) bool { return e.SunTimes != nil },
		func() (Entry, error) {
			st, err := c.calc.SunTimes(date, lat, lon, loc)
			return Entry{SunTimes: &st}, err
		})
	if err != nil {
		return astro.SunTimes{}, err
	}
	return localizeSunTimes(*entry.SunTimes, loc), nil
}

// MoonIllumination returns the cached lunar phase.
func (c *Cache) MoonIllumination(ctx context.Context, m astro.GeoMoment) (astro.MoonPhase, error) {
	m = c.keys.normalize(m)
	entry, err := c.readThrough(ctx, c.keys.moonPhase(m),
		func(e Entry) bool { return e.Phase != nil },
		func() (Entry, error) {
			p, err := c.calc.MoonIllumination(m)
			return Entry{Phase: &p}, err
		})
	if err != nil {
		return astro.MoonPhase{}, err
	}
	phase := *entry.Phase
	if m.Location != nil {
		phase.Instant = phase.Instant.In(m.Location)
	}
	return phase, nil
}

func (c *Cache) readThrough(ctx context.Context, key string, usable func(Entry) bool, compute func() (Entry, error)) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	if entry, ok := c.lookup(ctx, key); ok && usable(entry) {
		c.counters.Hit()
		return entry, nil
	}
	c.counters.Miss()
	return c.computeAndStore(ctx, key, compute)
}

func (c *Cache) lookup(ctx context.Context, key string) (Entry, bool) {
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("astro cache read failed", "key", key, "error", err)
		return Entry{}, false
	}
	return entry, ok
}

func (c *Cache) computeAndStore(ctx context.Context, key string, compute func() (Entry, error)) (Entry, error) {
	entry, err := compute()
	if err != nil {
		c.counters.Fail()
		return Entry{}, err
	}
	c.counters.Compute()
	entry.ComputedAt = c.now().UTC()
	if err := c.store.Put(ctx, key, entry); err != nil {
		c.logger.Warn("astro cache write failed", "key", key, "error", err)
	}
	return entry, nil
}

// InvalidateOlderThan drops entries computed before t.
func (c *Cache) InvalidateOlderThan(ctx context.Context, t time.Time) (int, error) {
	removed, err := c.store.InvalidateOlderThan(ctx, t)
	if err != nil {
		return 0, err
	}
	c.logger.Info("astro cache invalidated", "before", t.Format(time.RFC3339), "removed", removed)
	return removed, nil
}

// CleanupExpired trims the store to the keep most recent entries.
func (c *Cache) CleanupExpired(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	removed, err := c.store.Cleanup(ctx, keep)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		c.logger.Info("astro cache cleaned up", "keep", keep, "removed", removed)
	}
	return removed, nil
}

// Stats reports counters plus the current entry count.
func (c *Cache) Stats(ctx context.Context) metrics.CacheStats {
	stats := c.counters.Snapshot()
	n, err := c.store.Len(ctx)
	if err != nil {
		c.logger.Warn("astro cache size unavailable", "error", err)
		return stats
	}
	stats.Entries = n
	return stats
}

func localizePosition(p astro.CelestialPosition, loc *time.Location) astro.CelestialPosition {
	p.Instant = p.Instant.In(loc)
	p.Rise = inLoc(p.Rise, loc)
	p.Set = inLoc(p.Set, loc)
	p.Transit = inLoc(p.Transit, loc)
	return p
}

func localizeSunTimes(s astro.SunTimes, loc *time.Location) astro.SunTimes {
	for _, f := range []**time.Time{
		&s.Sunrise, &s.Sunset, &s.SolarNoon, &s.CivilDawn, &s.CivilDusk,
		&s.NauticalDawn, &s.NauticalDusk, &s.AstronomicalDawn, &s.AstronomicalDusk,
	} {
		*f = inLoc(*f, loc)
	}
	for _, w := range []**astro.Window{&s.GoldenHourMorning, &s.GoldenHourEvening, &s.BlueHourMorning, &s.BlueHourEvening} {
		if *w != nil {
			*w = &astro.Window{Start: (*w).Start.In(loc), End: (*w).End.In(loc)}
		}
	}
	return s
}

func inLoc(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(loc)
	return &v
}
