package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yanqian/lightcast/internal/domain/planner"
	"github.com/yanqian/lightcast/internal/domain/weather"
)

const (
	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	hourlyFields   = "temperature_2m,relative_humidity_2m,precipitation_probability,cloud_cover,visibility,wind_speed_10m"
	hourLayout     = "2006-01-02T15:04"
	cacheEntries   = 256
)

// Config controls the Open-Meteo client.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client fetches hourly forecasts from Open-Meteo.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *expirable.LRU[string, weather.Forecast]
	now        func() time.Time
}

var _ planner.WeatherProvider = (*Client)(nil)

// NewClient builds an API client. A zero CacheTTL disables response caching.
func NewClient(cfg Config) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	if cfg.CacheTTL > 0 {
		c.cache = expirable.NewLRU[string, weather.Forecast](cacheEntries, nil, cfg.CacheTTL)
	}
	return c
}

// Forecast returns hourly points covering [from, to).
func (c *Client) Forecast(ctx context.Context, lat, lon float64, from, to time.Time) (weather.Forecast, error) {
	if !to.After(from) {
		return weather.Forecast{}, fmt.Errorf("forecast range is empty: %s to %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	start := from.UTC().Truncate(time.Hour)
	end := to.UTC().Add(-time.Nanosecond).Truncate(time.Hour)

	key := cacheKey(lat, lon, start, end)
	if c.cache != nil {
		if f, ok := c.cache.Get(key); ok {
			return f, nil
		}
	}

	q := url.Values{}
	q.Set("latitude", formatCoord(lat))
	q.Set("longitude", formatCoord(lon))
	q.Set("hourly", hourlyFields)
	q.Set("timezone", "GMT")
	q.Set("wind_speed_unit", "kmh")
	q.Set("temperature_unit", "celsius")
	q.Set("start_hour", start.Format(hourLayout))
	q.Set("end_hour", end.Format(hourLayout))
	endpoint := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return weather.Forecast{}, fmt.Errorf("build forecast request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return weather.Forecast{}, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return weather.Forecast{}, fmt.Errorf("forecast request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return weather.Forecast{}, fmt.Errorf("decode forecast response: %w", err)
	}
	if raw.Error {
		return weather.Forecast{}, fmt.Errorf("forecast api error: %s", raw.Reason)
	}

	forecast, err := normalize(raw)
	if err != nil {
		return weather.Forecast{}, err
	}
	forecast.Source = "open-meteo"
	forecast.FetchedAt = c.now().UTC()
	if c.cache != nil {
		c.cache.Add(key, forecast)
	}
	return forecast, nil
}

type apiResponse struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Error     bool       `json:"error"`
	Reason    string     `json:"reason"`
	Hourly    hourlyData `json:"hourly"`
}

// Open-Meteo reports null for missing samples.
type hourlyData struct {
	Time                     []string   `json:"time"`
	Temperature              []*float64 `json:"temperature_2m"`
	RelativeHumidity         []*float64 `json:"relative_humidity_2m"`
	PrecipitationProbability []*float64 `json:"precipitation_probability"`
	CloudCover               []*float64 `json:"cloud_cover"`
	Visibility               []*float64 `json:"visibility"`
	WindSpeed                []*float64 `json:"wind_speed_10m"`
}

func normalize(raw apiResponse) (weather.Forecast, error) {
	h := raw.Hourly
	points := make([]weather.ForecastPoint, 0, len(h.Time))
	for i, ts := range h.Time {
		at, err := time.ParseInLocation(hourLayout, ts, time.UTC)
		if err != nil {
			return weather.Forecast{}, fmt.Errorf("parse forecast hour %q: %w", ts, err)
		}
		points = append(points, weather.ForecastPoint{
			Time:                     at,
			TemperatureC:             sample(h.Temperature, i, 1),
			CloudCover:               sample(h.CloudCover, i, 0.01),
			PrecipitationProbability: sample(h.PrecipitationProbability, i, 0.01),
			Humidity:                 sample(h.RelativeHumidity, i, 0.01),
			VisibilityKm:             sample(h.Visibility, i, 0.001),
			WindSpeedKmh:             sample(h.WindSpeed, i, 1),
		})
	}
	f := weather.Forecast{Latitude: raw.Latitude, Longitude: raw.Longitude, Points: points}
	f.Sort()
	return f, nil
}

// sample scales values[i]; short or null series yield nil.
func sample(values []*float64, i int, scale float64) *float64 {
	if i >= len(values) || values[i] == nil {
		return nil
	}
	v := *values[i] * scale
	return &v
}

// coordDecimals is shared by the request and the cache key so a cached
// forecast always belongs to the point that was fetched.
const coordDecimals = 4

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', coordDecimals, 64)
}

func cacheKey(lat, lon float64, start, end time.Time) string {
	return strings.Join([]string{formatCoord(lat), formatCoord(lon), start.Format(hourLayout), end.Format(hourLayout)}, "|")
}
