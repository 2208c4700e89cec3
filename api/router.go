package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/regbot/api/handler"
	"github.com/use-agent/regbot/api/middleware"
	"github.com/use-agent/regbot/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	Runs:    Auth (if enabled) → RateLimit (submission only)
//
// Health endpoint is outside auth for load-balancer health checks.
func NewRouter(svc handler.RunService, cfg *config.Config, startTime time.Time, version string) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health, no auth required.
	v1.GET("/health", handler.Health(svc, startTime, version))

	runs := v1.Group("/runs")
	if cfg.Auth.Enabled {
		runs.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	runs.POST("", middleware.RateLimit(cfg.RateLimit), handler.PostRun(svc, cfg.Server.MaxRecords))
	runs.GET("/:id", handler.GetRun(svc))

	return r
}
