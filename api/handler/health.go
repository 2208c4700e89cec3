package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/regbot/models"
)

// Health returns a handler for GET /api/v1/health.
//
// Reports queue utilisation and degrades status when the queue is over 80%
// full or the worker has stopped.
func Health(svc RunService, startTime time.Time, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := svc.Stats()

		status := "healthy"
		switch {
		case stats.Stopped:
			status = "stopping"
		case stats.Capacity > 0 && stats.Queued > int(float64(stats.Capacity)*0.8):
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Queue:   stats,
			Version: version,
		})
	}
}
