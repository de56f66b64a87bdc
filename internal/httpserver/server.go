package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iotcloud/device-events-service/internal/auth"
	"github.com/iotcloud/device-events-service/internal/config"
	"github.com/iotcloud/device-events-service/internal/docstore"
	"github.com/iotcloud/device-events-service/internal/handlers"
	"github.com/iotcloud/device-events-service/internal/query"
)

// NewRouter wires public endpoints and the bearer-gated API.
// Public: /health, /ready
// Gated: /api/events and the query endpoints under it
func NewRouter(cfg config.Config, client *docstore.Client, st handlers.Store, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the document store is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := client.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	gated := r.Group("/")
	gated.Use(auth.BearerMiddleware(cfg.APIKey))

	qb := query.NewBuilder(docstore.EventsTable)
	handlers.RegisterEventRoutes(gated, st, log)
	handlers.RegisterQueryRoutes(gated, st, qb, log)

	return r
}
