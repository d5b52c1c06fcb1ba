package api

import (
	"context"
	"net/http"
	"time"

	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metrics"
	"studyloop-generation/pkg/models"

	"github.com/gin-gonic/gin"
)

// WorkerStatsProvider expose les statistiques du worker de génération
type WorkerStatsProvider interface {
	GetStats() models.WorkerStats
}

// SetupWorkerRouter sert le health check et les métriques du processus worker
func SetupWorkerRouter(stats WorkerStatsProvider, db Pinger, log *logger.Logger, environment string) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))

	metrics.MustRegister()

	r.GET("/health", func(c *gin.Context) {
		resp := models.WorkerHealthResponse{
			Status:    "healthy",
			Service:   "studyloop-generation-worker",
			Timestamp: time.Now().UTC(),
			Worker:    stats.GetStats(),
		}

		if !resp.Worker.Running {
			resp.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				log.Warn("Worker health check: database unreachable", "error", err)
				resp.Status = "unhealthy"
				c.JSON(http.StatusServiceUnavailable, resp)
				return
			}
		}

		c.JSON(http.StatusOK, resp)
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}
