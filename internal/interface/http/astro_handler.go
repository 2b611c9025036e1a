package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/lightcast/internal/domain/astro"
	apperrors "github.com/yanqian/lightcast/pkg/errors"
)

type preloadRequest struct {
	LocationID string `json:"locationId" binding:"required"`
	Days       int    `json:"days"`
}

// SunTimes answers GET /astro/sun-times?lat&lon&tz&date.
func (h *Handler) SunTimes(c *gin.Context) {
	lat, lon, loc, err := h.coordinates(c)
	if err != nil {
		abortWithError(c, fromDomainError(err, "invalid_request"))
		return
	}
	date := h.now().In(loc)
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		date, err = time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD", err))
			return
		}
	}

	times, err := h.astro.SunTimes(c.Request.Context(), date, lat, lon, loc)
	if err != nil {
		abortWithError(c, fromDomainError(err, "ephemeris_failed"))
		return
	}
	c.JSON(http.StatusOK, times)
}

// Position answers GET /astro/positions?target&lat&lon&tz&at.
func (h *Handler) Position(c *gin.Context) {
	target, err := astro.ParseTarget(c.DefaultQuery("target", string(astro.TargetSun)))
	if err != nil {
		abortWithError(c, fromDomainError(err, "invalid_request"))
		return
	}
	m, err := h.moment(c)
	if err != nil {
		abortWithError(c, fromDomainError(err, "invalid_request"))
		return
	}

	pos, err := h.astro.Position(c.Request.Context(), target, m)
	if err != nil {
		abortWithError(c, fromDomainError(err, "ephemeris_failed"))
		return
	}
	c.JSON(http.StatusOK, pos)
}

// MoonPhase answers GET /astro/moon-phase?at. Coordinates are optional.
func (h *Handler) MoonPhase(c *gin.Context) {
	m, err := h.moment(c)
	if err != nil {
		abortWithError(c, fromDomainError(err, "invalid_request"))
		return
	}

	phase, err := h.astro.MoonIllumination(c.Request.Context(), m)
	if err != nil {
		abortWithError(c, fromDomainError(err, "ephemeris_failed"))
		return
	}
	c.JSON(http.StatusOK, phase)
}

// Preload warms the cache for a saved location.
func (h *Handler) Preload(c *gin.Context) {
	var req preloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	res, err := h.planner.Preload(c.Request.Context(), req.LocationID, req.Days)
	if err != nil {
		abortWithError(c, fromDomainError(err, "preload_failed"))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) CacheStats(c *gin.Context) {
	stats := h.astro.Stats(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"stats":    stats,
		"hitRatio": stats.HitRatio(),
	})
}

func (h *Handler) moment(c *gin.Context) (astro.GeoMoment, error) {
	lat, lon, loc, err := h.coordinates(c)
	if err != nil {
		return astro.GeoMoment{}, err
	}
	at := h.now().In(loc)
	if raw := strings.TrimSpace(c.Query("at")); raw != "" {
		at, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return astro.GeoMoment{}, apperrors.Wrap(apperrors.CodeInvalidInput, "at must be RFC3339", err)
		}
	}
	return astro.NewGeoMoment(lat, lon, loc, at)
}

// coordinates reads lat, lon and tz; missing coordinates default to 0.
func (h *Handler) coordinates(c *gin.Context) (float64, float64, *time.Location, error) {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		return 0, 0, nil, err
	}
	lon, err := queryFloat(c, "lon")
	if err != nil {
		return 0, 0, nil, err
	}
	if err := astro.ValidateCoordinates(lat, lon); err != nil {
		return 0, 0, nil, err
	}
	tz := c.DefaultQuery("tz", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, 0, nil, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown time zone "+tz, err)
	}
	return lat, lon, loc, nil
}

func queryFloat(c *gin.Context, key string) (float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, key+" must be a number", err)
	}
	return v, nil
}
