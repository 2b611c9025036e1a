package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/lightcast/internal/domain/astro"
	"github.com/yanqian/lightcast/internal/domain/planner"
	"github.com/yanqian/lightcast/pkg/metrics"
	"github.com/yanqian/lightcast/pkg/util"
)

// AstroCache is the cached ephemeris surface exposed over HTTP.
type AstroCache interface {
	Position(ctx context.Context, target astro.Target, m astro.GeoMoment) (astro.CelestialPosition, error)
	SunTimes(ctx context.Context, date time.Time, lat, lon float64, loc *time.Location) (astro.SunTimes, error)
	MoonIllumination(ctx context.Context, m astro.GeoMoment) (astro.MoonPhase, error)
	Stats(ctx context.Context) metrics.CacheStats
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	planner planner.Service
	astro   AstroCache
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler constructs the root HTTP handler.
func NewHandler(plannerSvc planner.Service, astroCache AstroCache, logger *slog.Logger) *Handler {
	return &Handler{
		planner: plannerSvc,
		astro:   astroCache,
		logger:  logger.With("component", "http.handler"),
		now:     time.Now,
	}
}

// PredictLight returns hourly light predictions.
func (h *Handler) PredictLight(c *gin.Context) {
	var req planner.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.planner.Predict(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "prediction_failed"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RecommendLight returns the best shooting windows.
func (h *Handler) RecommendLight(c *gin.Context) {
	var req planner.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.planner.Recommend(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "recommendation_failed"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RecordCalibration stores a light-meter reading.
func (h *Handler) RecordCalibration(c *gin.Context) {
	var req planner.CalibrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := h.planner.RecordCalibration(c.Request.Context(), req); err != nil {
		abortWithError(c, fromDomainError(err, "calibration_failed"))
		return
	}
	c.Status(http.StatusNoContent)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   util.NowUTC(),
	})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
