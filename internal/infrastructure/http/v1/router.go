// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"labcore/internal/core/tx"
	"labcore/internal/domain/attachment"
	"labcore/internal/domain/inventory"
	"labcore/internal/domain/sequence"
	"labcore/internal/infrastructure/http/v1/handlers"
	"labcore/internal/infrastructure/http/v1/middleware"
	"labcore/internal/infrastructure/storage/postgres"
	"labcore/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	// Pool is the database connection pool (health checks).
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// Tx provides read-only transactions for the query endpoints.
	Tx tx.ReadOnlyManager

	// Attachment is the parameter attachment orchestrator.
	Attachment *attachment.Service

	// Sequence allocates counter values.
	Sequence *sequence.Service

	// Selector resolves default lots for selection probes.
	Selector *inventory.Selector

	// Summaries reads product stock summaries.
	Summaries inventory.SummaryRepository
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	{
		attachmentHandler := handlers.NewAttachmentHandler(base, cfg.Attachment)
		api.POST("/attachments", attachmentHandler.Attach)
		api.POST("/attachments/detach", attachmentHandler.Detach)
		api.POST("/operations/cancel", attachmentHandler.Cancel)

		inventoryHandler := handlers.NewInventoryHandler(base, cfg.Tx, cfg.Selector, cfg.Summaries)
		api.GET("/inventory/default-lot", inventoryHandler.DefaultLot)
		api.GET("/inventory/summary", inventoryHandler.Summary)

		sequenceHandler := handlers.NewSequenceHandler(base, cfg.Sequence)
		api.POST("/sequences/next", sequenceHandler.Next)
	}

	return router
}
