package router

import (
	"net/http"

	"notiq/internal/common"
	"notiq/internal/config"
	"notiq/internal/domain/notification"
	"notiq/internal/metrics"
	"notiq/internal/middleware"

	"github.com/gin-gonic/gin"
)

// New creates and configures the Gin router with all middleware and routes.
func New(
	cfg *config.Config,
	notificationHandler *notification.Handler,
) *gin.Engine {
	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	// Global middleware stack (order matters)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg.CORS))

	// Per-IP throttle on the API surface
	ipLimiter := middleware.NewIPRateLimiter(
		cfg.HTTP.RequestsPerSecond,
		cfg.HTTP.Burst,
	)
	r.Use(ipLimiter.Middleware())

	r.Use(gin.Logger())

	// Public routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", metrics.Handler())

	// API routes (API key required when keys are configured)
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.Auth.APIKeys))
	{
		notificationHandler.RegisterRoutes(api)
	}

	return r
}

// healthCheck handles GET /health
func healthCheck(c *gin.Context) {
	common.Success(c, http.StatusOK, gin.H{
		"status":  "ok",
		"service": "notiq",
	})
}
