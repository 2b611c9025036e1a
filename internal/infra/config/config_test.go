package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 168, cfg.Predictor.MaxHours)
	require.Equal(t, 0.2, cfg.Weather.Impact.CloudFreeThreshold)
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9090"
astro:
  preload:
    days: 3
predictor:
  maxHours: 72
  defaultHours: 12
  defaultTimeZone: America/Denver
weather:
  impact:
    cloudMaxReduction: 0.5
seed:
  locations:
    - id: flatirons
      name: Flatirons
      latitude: 39.99
      longitude: -105.29
      timezone: America/Denver
`), 0o600))
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("POSTGRES_DSN=postgres://from-dotenv/lightcast\n"), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("ENV_FILE", envPath)
	t.Setenv("HTTP_RATE_LIMIT_RPM", "10")
	t.Setenv("WEATHER_CACHE_TTL", "5m")
	t.Setenv("HTTP_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Cleanup(func() { os.Unsetenv("POSTGRES_DSN") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, 3, cfg.Astro.Preload.Days)
	require.Equal(t, 72, cfg.Predictor.MaxHours)
	require.Equal(t, 1.0, cfg.Predictor.BaseMargin)
	require.Equal(t, 12, cfg.Predictor.DefaultHours)
	require.Equal(t, 0.5, cfg.Weather.Impact.CloudMaxReduction)
	require.Equal(t, 0.5, cfg.Weather.Impact.PrecipMaxReduction)
	require.Equal(t, 10, cfg.HTTP.RateLimit.RequestsPerMinute)
	require.Equal(t, 5*time.Minute, cfg.Weather.CacheTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORS.AllowedOrigins)
	require.Equal(t, "postgres://from-dotenv/lightcast", cfg.Postgres.DSN)
	require.Len(t, cfg.Seed.Locations, 1)
	require.Equal(t, "America/Denver", cfg.Seed.Locations[0].TimeZone)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"address":      func(c *Config) { c.HTTP.Address = "" },
		"rate limit":   func(c *Config) { c.HTTP.RateLimit.Burst = 0 },
		"capacity":     func(c *Config) { c.Astro.Cache.Capacity = 0 },
		"precision":    func(c *Config) { c.Astro.Cache.Precision = 12 },
		"valkey addr":  func(c *Config) { c.Astro.Cache.Valkey.Enabled = true },
		"preload days": func(c *Config) { c.Astro.Preload.Days = 60 },
		"hours":        func(c *Config) { c.Predictor.DefaultHours = 500 },
		"time zone":    func(c *Config) { c.Predictor.DefaultTimeZone = "Nowhere/Land" },
		"stop scale":   func(c *Config) { c.Predictor.DefaultStopScale = "quarter" },
		"seed name":    func(c *Config) { c.Seed.Locations = []SeedLocation{{Latitude: 1}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
