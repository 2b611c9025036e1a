package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/lightcast/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.CORS.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	{
		api.POST("/light/predictions", handler.PredictLight)
		api.POST("/light/recommendations", handler.RecommendLight)
		api.POST("/light/calibrations", handler.RecordCalibration)

		api.POST("/exposure/solve", handler.SolveExposure)
		api.GET("/exposure/ladders/:axis", handler.StopLadder)

		api.GET("/astro/sun-times", handler.SunTimes)
		api.GET("/astro/positions", handler.Position)
		api.GET("/astro/moon-phase", handler.MoonPhase)
		api.POST("/astro/preload", handler.Preload)
		api.GET("/astro/cache/stats", handler.CacheStats)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
