package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `{
  "latitude": 40.0,
  "longitude": -105.25,
  "hourly": {
    "time": ["2024-06-21T13:00", "2024-06-21T12:00"],
    "temperature_2m": [24.5, 23.1],
    "relative_humidity_2m": [35, null],
    "precipitation_probability": [10, 0],
    "cloud_cover": [80, 5],
    "visibility": [24140, 50000],
    "wind_speed_10m": [12.2, 8.0]
  }
}`

func TestNormalizeConvertsUnits(t *testing.T) {
	c, hits := newTestClient(t, http.StatusOK, sampleBody, 0)
	from := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)

	f, err := c.Forecast(context.Background(), 40, -105.25, from, from.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int32(1), hits.Load())
	require.Equal(t, "open-meteo", f.Source)
	require.Len(t, f.Points, 2)

	first := f.Points[0]
	require.True(t, first.Time.Equal(from))
	require.InDelta(t, 0.05, *first.CloudCover, 1e-9)
	require.InDelta(t, 50.0, *first.VisibilityKm, 1e-9)
	require.Nil(t, first.Humidity)

	second := f.Points[1]
	require.InDelta(t, 0.8, *second.CloudCover, 1e-9)
	require.InDelta(t, 0.35, *second.Humidity, 1e-9)
	require.InDelta(t, 0.1, *second.PrecipitationProbability, 1e-9)
	require.InDelta(t, 24.14, *second.VisibilityKm, 1e-9)
	require.InDelta(t, 12.2, *second.WindSpeedKmh, 1e-9)

	require.NotNil(t, f.At(from.Add(90*time.Minute)))
}

func TestForecastCachesResponses(t *testing.T) {
	c, hits := newTestClient(t, http.StatusOK, sampleBody, time.Minute)
	from := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)

	_, err := c.Forecast(context.Background(), 40, -105.25, from, from.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = c.Forecast(context.Background(), 40, -105.25, from, from.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int32(1), hits.Load())
}

func TestForecastCacheKeyMatchesRequestPrecision(t *testing.T) {
	c, hits := newTestClient(t, http.StatusOK, sampleBody, time.Minute)
	from := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)

	_, err := c.Forecast(context.Background(), 40.0001, -105.25, from, from.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = c.Forecast(context.Background(), 40.0004, -105.25, from, from.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load())

	_, err = c.Forecast(context.Background(), 40.00012, -105.25, from, from.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load())
	require.Equal(t, "40.0001|-105.2500|2024-06-21T12:00|2024-06-21T14:00", cacheKey(40.00012, -105.25, from, from.Add(2*time.Hour)))
}

func TestForecastErrors(t *testing.T) {
	from := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)

	c, _ := newTestClient(t, http.StatusBadRequest, `{"error":true,"reason":"bad latitude"}`, 0)
	_, err := c.Forecast(context.Background(), 40, -105, from, from.Add(time.Hour))
	require.ErrorContains(t, err, "status=400")

	c, _ = newTestClient(t, http.StatusOK, `{"error":true,"reason":"out of range"}`, 0)
	_, err = c.Forecast(context.Background(), 40, -105, from, from.Add(time.Hour))
	require.ErrorContains(t, err, "out of range")

	c, _ = newTestClient(t, http.StatusOK, `{"hourly":{"time":["yesterday"]}}`, 0)
	_, err = c.Forecast(context.Background(), 40, -105, from, from.Add(time.Hour))
	require.ErrorContains(t, err, "parse forecast hour")

	_, err = c.Forecast(context.Background(), 40, -105, from, from)
	require.Error(t, err)
}

func newTestClient(t *testing.T, status int, body string, ttl time.Duration) (*Client, *atomic.Int32) {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "GMT", q.Get("timezone"))
		assert.Contains(t, q.Get("hourly"), "cloud_cover")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, CacheTTL: ttl}), hits
}
