package astrocache

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/lightcast/internal/domain/astro"
	apperrors "github.com/yanqian/lightcast/pkg/errors"
)

// PreloadResult summarizes a preload run.
type PreloadResult struct {
	Days     int `json:"days"`
	Computed int `json:"computed"`
	Skipped  int `json:"skipped"`
}

// Preload computes sun times for every local calendar day in [from, to] plus
// hourly sun and moon positions. Entries already in the store are skipped.
// Days run concurrently.
func (c *Cache) Preload(ctx context.Context, from, to time.Time, lat, lon float64, loc *time.Location) (PreloadResult, error) {
	if err := astro.ValidateCoordinates(lat, lon); err != nil {
		return PreloadResult{}, err
	}
	if loc == nil {
		return PreloadResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "time zone is required", nil)
	}
	days := calendarDays(from.In(loc), to.In(loc))
	if len(days) == 0 {
		return PreloadResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "preload range end is before start", nil)
	}
	if len(days) > c.cfg.MaxPreloadDays {
		return PreloadResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "preload range is too long", nil)
	}
	lat, lon = c.keys.round(lat), c.keys.round(lon)

	var computed, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.PreloadConcurrency)
	for _, day := range days {
		day := day
		g.Go(func() error {
			n, s, err := c.preloadDay(gctx, day, lat, lon, loc)
			computed.Add(int64(n))
			skipped.Add(int64(s))
			return err
		})
	}
	err := g.Wait()
	res := PreloadResult{Days: len(days), Computed: int(computed.Load()), Skipped: int(skipped.Load())}
	if err != nil {
		return res, err
	}
	c.logger.Info("astro cache preloaded",
		"from", days[0].Format(time.DateOnly),
		"to", days[len(days)-1].Format(time.DateOnly),
		"computed", res.Computed,
		"skipped", res.Skipped,
	)
	return res, nil
}

func (c *Cache) preloadDay(ctx context.Context, day time.Time, lat, lon float64, loc *time.Location) (computed, skipped int, err error) {
	warm := func(key string, compute func() (Entry, error)) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := c.lookup(ctx, key); ok {
			skipped++
			return nil
		}
		if _, err := c.computeAndStore(ctx, key, compute); err != nil {
			return err
		}
		computed++
		return nil
	}

	err = warm(c.keys.sunTimes(day, lat, lon, loc), func() (Entry, error) {
		st, err := c.calc.SunTimes(day, lat, lon, loc)
		return Entry{SunTimes: &st}, err
	})
	if err != nil {
		return computed, skipped, err
	}

	end := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc)
	for t := day; t.Before(end); t = t.Add(time.Hour) {
		m := c.keys.normalize(astro.GeoMoment{Latitude: lat, Longitude: lon, Location: loc, Instant: t})
		for _, target := range []astro.Target{astro.TargetSun, astro.TargetMoon} {
			err := warm(c.keys.position(target, m), func() (Entry, error) {
				pos, err := c.calc.Position(target, m)
				return Entry{Position: &pos}, err
			})
			if err != nil {
				return computed, skipped, err
			}
		}
	}
	return computed, skipped, nil
}

// calendarDays lists local midnights from from's date through to's date.
func calendarDays(from, to time.Time) []time.Time {
	loc := from.Location()
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)
	var days []time.Time
	for d := start; !d.After(last); d = time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc) {
		days = append(days, d)
	}
	return days
}
