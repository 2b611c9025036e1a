package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/lightcast/internal/infra/config"
)

func scriptedHandler(statuses ...int) (http.Handler, *int) {
	calls := 0
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := statuses[len(statuses)-1]
		if calls < len(statuses) {
			status = statuses[calls]
		}
		calls++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Attempt", http.StatusText(status))
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}), &calls
}

func retryConfig(attempts int, exclude ...string) config.RetryConfig {
	return config.RetryConfig{Enabled: true, MaxAttempts: attempts, BaseBackoff: time.Millisecond, Exclude: exclude}
}

func TestWithRetry_ReplaysTransientStatuses(t *testing.T) {
	for _, status := range []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout} {
		inner, calls := scriptedHandler(status, http.StatusOK)
		handler := withRetry(inner, retryConfig(3), newTestLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/light/predictions", strings.NewReader(`{"hours":6}`)))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 2, *calls)
		require.Equal(t, `{"hours":6}`, rec.Body.String())
		require.Equal(t, "OK", rec.Header().Get("X-Attempt"))
	}
}

func TestWithRetry_ReplaysReads(t *testing.T) {
	inner, calls := scriptedHandler(http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK)
	handler := withRetry(inner, retryConfig(3), newTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/astro/sun-times", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, *calls)
}

func TestWithRetry_FinalFailuresPassThrough(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{name: "internal error", method: http.MethodPost, path: "/api/v1/light/predictions", status: http.StatusInternalServerError},
		{name: "bad request", method: http.MethodPost, path: "/api/v1/light/predictions", status: http.StatusBadRequest},
		{name: "excluded path", method: http.MethodPost, path: "/api/v1/light/calibrations", status: http.StatusServiceUnavailable},
		{name: "write method", method: http.MethodPut, path: "/api/v1/light/predictions", status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inner, calls := scriptedHandler(tc.status, http.StatusOK)
			handler := withRetry(inner, retryConfig(3, "/api/v1/light/calibrations"), newTestLogger())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`)))
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, 1, *calls)
		})
	}
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	inner, calls := scriptedHandler(http.StatusServiceUnavailable)
	handler := withRetry(inner, retryConfig(2), newTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/astro/positions", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, 2, *calls)
}

func TestWithRetry_StopsWhenClientLeaves(t *testing.T) {
	inner, calls := scriptedHandler(http.StatusServiceUnavailable, http.StatusOK)
	cfg := retryConfig(3)
	cfg.BaseBackoff = time.Hour
	handler := withRetry(inner, cfg, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/astro/positions", nil).WithContext(ctx))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, 1, *calls)
}

func TestWithRetry_RejectsOversizedBodies(t *testing.T) {
	inner, calls := scriptedHandler(http.StatusOK)
	handler := withRetry(inner, retryConfig(3), newTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/light/predictions", strings.NewReader(strings.Repeat("x", retryBodyLimit+1))))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Zero(t, *calls)
}
