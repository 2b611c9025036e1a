package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/lightcast/internal/domain/exposure"
	"github.com/yanqian/lightcast/internal/domain/lightpredict"
	"github.com/yanqian/lightcast/internal/domain/weather"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Astro     AstroConfig     `yaml:"astro"`
	Predictor PredictorConfig `yaml:"predictor"`
	Weather   WeatherConfig   `yaml:"weather"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Seed      SeedConfig      `yaml:"seed"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address         string          `yaml:"address"`
	ReadTimeout     time.Duration   `yaml:"readTimeout"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
	Retry           RetryConfig     `yaml:"retry"`
	CORS            CORSConfig      `yaml:"cors"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures replays of read-only requests that hit a transient
// 502, 503 or 504. Exclude lists paths that write.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// AstroConfig controls the ephemeris cache and its background jobs.
type AstroConfig struct {
	Cache   AstroCacheConfig `yaml:"cache"`
	Preload PreloadConfig    `yaml:"preload"`
	Cleanup CleanupConfig    `yaml:"cleanup"`
}

// AstroCacheConfig sizes the cache and picks its backing store.
type AstroCacheConfig struct {
	// Disabled makes every lookup recompute.
	Disabled  bool         `yaml:"disabled"`
	Capacity  int          `yaml:"capacity"`
	Precision int          `yaml:"precision"`
	Valkey    ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// PreloadConfig drives the nightly cache warm-up.
type PreloadConfig struct {
	Days        int           `yaml:"days"`
	MaxDays     int           `yaml:"maxDays"`
	Concurrency int           `yaml:"concurrency"`
	Schedule    string        `yaml:"schedule"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CleanupConfig bounds cache growth.
type CleanupConfig struct {
	Schedule string        `yaml:"schedule"`
	Keep     int           `yaml:"keep"`
	MaxAge   time.Duration `yaml:"maxAge"`
}

// PredictorConfig tunes the hourly predictor and the recommendation layer.
type PredictorConfig struct {
	lightpredict.Config `yaml:",inline"`
	DefaultHours        int    `yaml:"defaultHours"`
	DefaultTimeZone     string `yaml:"defaultTimeZone"`
	DefaultStopScale    string `yaml:"defaultStopScale"`
	Alternatives        int    `yaml:"alternatives"`
}

// WeatherConfig points at the forecast provider and its impact curves.
type WeatherConfig struct {
	BaseURL  string         `yaml:"baseUrl"`
	Timeout  time.Duration  `yaml:"timeout"`
	CacheTTL time.Duration  `yaml:"cacheTtl"`
	Impact   weather.Config `yaml:"impact"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
	Migrate  bool   `yaml:"migrate"`
}

// SeedConfig preloads the memory stores when Postgres is not configured.
type SeedConfig struct {
	Locations []SeedLocation `yaml:"locations"`
	Equipment []SeedGear     `yaml:"equipment"`
}

type SeedLocation struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	TimeZone  string  `yaml:"timezone"`
}

type SeedGear struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	FocalLengthMM float64 `yaml:"focalLengthMm"`
	MaxAperture   float64 `yaml:"maxAperture"`
	MinAperture   float64 `yaml:"minAperture"`
	MinISO        int     `yaml:"minIso"`
	MaxISO        int     `yaml:"maxIso"`
}

// Load reads .env, a YAML file and environment variables, in that order of
// precedence from lowest to highest.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString("HTTP_ADDRESS", &cfg.HTTP.Address)
	setBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	setInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	setInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	setBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled)
	setInt("HTTP_RETRY_MAX_ATTEMPTS", &cfg.HTTP.Retry.MaxAttempts)
	setDuration("HTTP_RETRY_BASE_BACKOFF", &cfg.HTTP.Retry.BaseBackoff)
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORS.AllowedOrigins = splitList(v)
	}

	setBool("ASTRO_CACHE_DISABLED", &cfg.Astro.Cache.Disabled)
	setInt("ASTRO_CACHE_CAPACITY", &cfg.Astro.Cache.Capacity)
	setInt("ASTRO_CACHE_PRECISION", &cfg.Astro.Cache.Precision)
	setBool("ASTRO_VALKEY_ENABLED", &cfg.Astro.Cache.Valkey.Enabled)
	setString("ASTRO_VALKEY_ADDR", &cfg.Astro.Cache.Valkey.Addr)
	setInt("ASTRO_PRELOAD_DAYS", &cfg.Astro.Preload.Days)
	setString("ASTRO_PRELOAD_SCHEDULE", &cfg.Astro.Preload.Schedule)
	setString("ASTRO_CLEANUP_SCHEDULE", &cfg.Astro.Cleanup.Schedule)
	setInt("ASTRO_CLEANUP_KEEP", &cfg.Astro.Cleanup.Keep)

	setInt("PREDICTOR_MAX_HOURS", &cfg.Predictor.MaxHours)
	setInt("PREDICTOR_DEFAULT_HOURS", &cfg.Predictor.DefaultHours)
	setString("PREDICTOR_DEFAULT_TIMEZONE", &cfg.Predictor.DefaultTimeZone)
	setString("PREDICTOR_DEFAULT_STOP_SCALE", &cfg.Predictor.DefaultStopScale)

	setString("WEATHER_BASE_URL", &cfg.Weather.BaseURL)
	setDuration("WEATHER_TIMEOUT", &cfg.Weather.Timeout)
	setDuration("WEATHER_CACHE_TTL", &cfg.Weather.CacheTTL)

	setString("POSTGRES_DSN", &cfg.Postgres.DSN)
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
	setBool("POSTGRES_MIGRATE", &cfg.Postgres.Migrate)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:         ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 100 * time.Millisecond,
				Exclude: []string{
					"/api/v1/astro/preload",
					"/api/v1/light/calibrations",
				},
			},
			CORS: CORSConfig{
				AllowedOrigins: []string{"http://localhost:5173"},
			},
		},
		Astro: AstroConfig{
			Cache: AstroCacheConfig{
				Capacity:  4096,
				Precision: 4,
				Valkey: ValkeyConfig{
					Prefix: "lightcast:astro",
				},
			},
			Preload: PreloadConfig{
				Days:        7,
				MaxDays:     31,
				Concurrency: 4,
				Schedule:    "15 2 * * *",
				Timeout:     10 * time.Minute,
			},
			Cleanup: CleanupConfig{
				Schedule: "45 3 * * *",
				Keep:     4096,
				MaxAge:   30 * 24 * time.Hour,
			},
		},
		Predictor: PredictorConfig{
			Config:           lightpredict.DefaultConfig(),
			DefaultHours:     24,
			DefaultTimeZone:  "UTC",
			DefaultStopScale: string(exposure.ScaleThird),
			Alternatives:     3,
		},
		Weather: WeatherConfig{
			BaseURL:  "https://api.open-meteo.com/v1/forecast",
			Timeout:  10 * time.Second,
			CacheTTL: 30 * time.Minute,
			Impact:   weather.DefaultConfig(),
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
			Migrate:  true,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if c.Astro.Cache.Capacity <= 0 {
		return errors.New("astro.cache.capacity must be positive")
	}
	if c.Astro.Cache.Precision < 1 || c.Astro.Cache.Precision > 8 {
		return errors.New("astro.cache.precision must be between 1 and 8")
	}
	if c.Astro.Cache.Valkey.Enabled && strings.TrimSpace(c.Astro.Cache.Valkey.Addr) == "" {
		return errors.New("astro.cache.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Astro.Preload.Days <= 0 || c.Astro.Preload.Days > c.Astro.Preload.MaxDays {
		return errors.New("astro.preload.days must be between 1 and astro.preload.maxDays")
	}
	if c.Astro.Preload.Concurrency <= 0 {
		return errors.New("astro.preload.concurrency must be positive")
	}
	if c.Astro.Cleanup.Keep < 0 {
		return errors.New("astro.cleanup.keep cannot be negative")
	}
	if c.Predictor.MaxHours <= 0 {
		return errors.New("predictor.maxHours must be positive")
	}
	if c.Predictor.DefaultHours <= 0 || c.Predictor.DefaultHours > c.Predictor.MaxHours {
		return errors.New("predictor.defaultHours must be between 1 and predictor.maxHours")
	}
	if _, err := time.LoadLocation(c.Predictor.DefaultTimeZone); err != nil {
		return fmt.Errorf("predictor.defaultTimeZone: %w", err)
	}
	if _, err := exposure.ParseStopScale(c.Predictor.DefaultStopScale); err != nil {
		return fmt.Errorf("predictor.defaultStopScale: %w", err)
	}
	if c.Weather.Timeout <= 0 {
		return errors.New("weather.timeout must be positive")
	}
	if c.Weather.CacheTTL < 0 {
		return errors.New("weather.cacheTtl cannot be negative")
	}
	for i, l := range c.Seed.Locations {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("seed.locations[%d].name cannot be empty", i)
		}
	}
	return nil
}
