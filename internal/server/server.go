package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/naufalarizq/kama-smartbox/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// New builds the operator-facing HTTP surface: a manual pipeline trigger,
// a health endpoint, and prometheus metrics.
func New(logger *logrus.Logger, scheduler *services.Scheduler, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Synchronous manual trigger. Reports run statistics, or 409 when a
	// scheduled run is already in flight.
	r.POST("/run", func(c *gin.Context) {
		stats, err := scheduler.TryRun(c.Request.Context())
		if err != nil {
			if errors.Is(err, services.ErrRunInProgress) {
				c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
				return
			}
			logger.Errorf("manual run failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": err.Error(),
				"stats": stats,
			})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	return r
}
