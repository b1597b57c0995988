package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/dispatch/engine/infra/server/appstate"
	"github.com/fieldops/dispatch/engine/infra/server/middleware/ratelimit"
	taskrouter "github.com/fieldops/dispatch/engine/task/router"
	"github.com/fieldops/dispatch/pkg/logger"
	"github.com/fieldops/dispatch/pkg/version"
)

// RegisterRoutes mounts the API surface and the health endpoint.
func RegisterRoutes(r *gin.Engine, state *appstate.State, health func(c *gin.Context)) error {
	r.GET("/healthz", health)

	apiBase := r.Group("/api/v0")
	var ingest []gin.HandlerFunc
	if state.Config.RateLimit.Enabled {
		limiter, err := ratelimit.New(state.Config.RateLimit.Rate)
		if err != nil {
			return err
		}
		ingest = append(ingest, limiter)
	}
	taskrouter.Register(apiBase, ingest...)
	return nil
}

// healthHandler reports readiness including the storage backend.
func healthHandler(check func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(); err != nil {
				logger.FromContext(c.Request.Context()).Error("health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get().Version})
	}
}
