package admin

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/homeplanner/settlement-scheduler/internal/admin/handler"
	"github.com/homeplanner/settlement-scheduler/internal/admin/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	settlementHandler *handler.SettlementHandler,
	historyHandler *handler.HistoryHandler,
	registry *prometheus.Registry,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Manual settlement run triggers
		settlements := v1.Group("/settlements")
		{
			settlements.POST("/savings", settlementHandler.TriggerSavings)
			settlements.POST("/joint-savings", settlementHandler.TriggerJointSavings)
			settlements.POST("/loans", settlementHandler.TriggerLoans)
		}

		// Settlement transaction history
		accounts := v1.Group("/accounts")
		{
			accounts.GET("/:account_id/transactions", historyHandler.ListTransactions)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	// Prometheus scrape endpoint backed by the application registry
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}
