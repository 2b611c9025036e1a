package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/lightcast/internal/domain/astro"
	"github.com/yanqian/lightcast/internal/domain/astrocache"
	"github.com/yanqian/lightcast/internal/domain/lightpredict"
	"github.com/yanqian/lightcast/internal/domain/planner"
	"github.com/yanqian/lightcast/internal/domain/recommend"
	"github.com/yanqian/lightcast/internal/domain/weather"
	"github.com/yanqian/lightcast/internal/infra/astrostore"
	"github.com/yanqian/lightcast/internal/infra/config"
	"github.com/yanqian/lightcast/internal/infra/gearrepo"
	"github.com/yanqian/lightcast/internal/infra/locationrepo"
	"github.com/yanqian/lightcast/internal/infra/postgres"
	"github.com/yanqian/lightcast/internal/infra/scheduler"
	"github.com/yanqian/lightcast/internal/infra/weather/openmeteo"
	"github.com/yanqian/lightcast/pkg/util"
)

type locationRepository interface {
	planner.LocationStore
	planner.CalibrationStore
	Save(ctx context.Context, location planner.Location) (planner.Location, error)
}

type gearRepository interface {
	planner.EquipmentStore
	Save(ctx context.Context, gear planner.Gear) (planner.Gear, error)
}

// repositories groups the stores that share one Postgres pool.
type repositories struct {
	locations locationRepository
	equipment gearRepository
}

func provideRepositories(cfg *config.Config, logger *slog.Logger) *repositories {
	repos := &repositories{
		locations: locationrepo.NewMemoryRepository(),
		equipment: gearrepo.NewMemoryRepository(),
	}
	pgCfg := postgres.Config{DSN: cfg.Postgres.DSN, MaxConns: cfg.Postgres.MaxConns, MinConns: cfg.Postgres.MinConns}
	if !pgCfg.Enabled() {
		logger.Info("postgres dsn not set, using memory repositories")
	} else if pool, err := postgres.Connect(context.Background(), pgCfg); err != nil {
		logger.Error("postgres unavailable, using memory repositories", "error", err)
	} else {
		migrated := true
		if cfg.Postgres.Migrate {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := postgres.Migrate(ctx, pool, logger); err != nil {
				logger.Error("postgres migration failed, using memory repositories", "error", err)
				pool.Close()
				migrated = false
			}
			cancel()
		}
		if migrated {
			logger.Info("postgres repositories enabled")
			repos.locations = locationrepo.NewPostgresRepository(pool)
			repos.equipment = gearrepo.NewPostgresRepository(pool)
		}
	}
	seedRepositories(cfg.Seed, repos, logger)
	return repos
}

func seedRepositories(seed config.SeedConfig, repos *repositories, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, l := range seed.Locations {
		if _, err := repos.locations.Save(ctx, planner.Location{
			ID: l.ID, Name: l.Name, Latitude: l.Latitude, Longitude: l.Longitude, TimeZone: l.TimeZone,
		}); err != nil {
			logger.Warn("failed to seed location", "id", l.ID, "error", err)
		}
	}
	for _, g := range seed.Equipment {
		if _, err := repos.equipment.Save(ctx, planner.Gear{
			ID:   g.ID,
			Name: g.Name,
			Equipment: lightpredict.Equipment{
				FocalLengthMM: g.FocalLengthMM,
				MaxAperture:   g.MaxAperture,
				MinAperture:   g.MinAperture,
				MinISO:        g.MinISO,
				MaxISO:        g.MaxISO,
			},
		}); err != nil {
			logger.Warn("failed to seed equipment", "id", g.ID, "error", err)
		}
	}
}

func provideLocationStore(r *repositories) planner.LocationStore       { return r.locations }
func provideCalibrationStore(r *repositories) planner.CalibrationStore { return r.locations }
func provideEquipmentStore(r *repositories) planner.EquipmentStore     { return r.equipment }

func provideAstroStore(cfg *config.Config, logger *slog.Logger) (astrocache.Store, error) {
	if cfg.Astro.Cache.Disabled {
		logger.Warn("astro cache disabled; every lookup recomputes")
		return astrostore.NoopStore{}, nil
	}
	vcfg := cfg.Astro.Cache.Valkey
	if vcfg.Enabled {
		opt, err := buildValkeyOptions(vcfg.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		} else if client, err := valkey.NewClient(opt); err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
				logger.Error("valkey ping failed, falling back to memory store", "error", err)
				client.Close()
			} else {
				logger.Info("astro valkey store enabled", "addr", vcfg.Addr)
				return astrostore.NewValkeyStore(client, vcfg.Prefix), nil
			}
		}
	}
	return astrostore.NewMemoryStore(cfg.Astro.Cache.Capacity)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideAstroCache(cfg *config.Config, store astrocache.Store, logger *slog.Logger) *astrocache.Cache {
	return astrocache.NewCache(astro.NewCalculator(), store, astrocache.Config{
		Precision:          cfg.Astro.Cache.Precision,
		PreloadConcurrency: cfg.Astro.Preload.Concurrency,
		MaxPreloadDays:     cfg.Astro.Preload.MaxDays,
	}, logger)
}

func providePredictor(cfg *config.Config, cache *astrocache.Cache, logger *slog.Logger) *lightpredict.Predictor {
	return lightpredict.NewPredictor(cache, weather.NewAnalyzer(cfg.Weather.Impact), cfg.Predictor.Config, logger)
}

func provideSynthesizer(cfg *config.Config) *recommend.Synthesizer {
	return recommend.NewSynthesizer(cfg.Predictor.Alternatives)
}

func provideWeatherClient(cfg *config.Config) *openmeteo.Client {
	return openmeteo.NewClient(openmeteo.Config{
		BaseURL:  cfg.Weather.BaseURL,
		Timeout:  cfg.Weather.Timeout,
		CacheTTL: cfg.Weather.CacheTTL,
	})
}

func providePlannerConfig(cfg *config.Config) planner.Config {
	return planner.Config{
		DefaultHours:     cfg.Predictor.DefaultHours,
		DefaultTimeZone:  cfg.Predictor.DefaultTimeZone,
		DefaultStopScale: cfg.Predictor.DefaultStopScale,
		PreloadDays:      cfg.Astro.Preload.Days,
	}
}

func provideScheduler(cfg *config.Config, svc planner.Service, cache *astrocache.Cache, logger *slog.Logger) (*scheduler.Scheduler, error) {
	jobs := scheduler.New(logger)
	preload := cfg.Astro.Preload
	if err := jobs.Add(scheduler.Job{
		Name:     "astro-preload",
		Schedule: preload.Schedule,
		Timeout:  preload.Timeout,
		Run: func(ctx context.Context) error {
			return svc.PreloadAll(ctx, preload.Days)
		},
	}); err != nil {
		return nil, err
	}
	cleanup := cfg.Astro.Cleanup
	if err := jobs.Add(scheduler.Job{
		Name:     "astro-cleanup",
		Schedule: cleanup.Schedule,
		Run: func(ctx context.Context) error {
			if cleanup.MaxAge > 0 {
				if _, err := cache.InvalidateOlderThan(ctx, util.NowUTC().Add(-cleanup.MaxAge)); err != nil {
					return fmt.Errorf("invalidate: %w", err)
				}
			}
			_, err := cache.CleanupExpired(ctx, cleanup.Keep)
			return err
		},
	}); err != nil {
		return nil, err
	}
	return jobs, nil
}
