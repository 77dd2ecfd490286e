// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stocktrack/internal/core/security"
	"stocktrack/internal/domain/audit"
	"stocktrack/internal/domain/documents/adjustment"
	"stocktrack/internal/domain/documents/delivery"
	"stocktrack/internal/domain/documents/receipt"
	"stocktrack/internal/domain/documents/transfer"
	"stocktrack/internal/domain/stock"
	"stocktrack/internal/infrastructure/http/v1/handlers"
	"stocktrack/internal/infrastructure/http/v1/middleware"
	"stocktrack/internal/infrastructure/storage/postgres"
	"stocktrack/pkg/logger"
)

// RouterConfig holds the collaborators the router wires together.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	// TokenValidator validates bearer tokens into actors
	TokenValidator middleware.TokenValidator

	// Auditor records document changes; audit.Nop when disabled
	Auditor audit.Trail

	StockService      *stock.Service
	ReceiptService    *receipt.Service
	DeliveryService   *delivery.Service
	TransferService   *transfer.Service
	AdjustmentService *adjustment.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	// API v1, JWT protected. Services enforce permissions again; the
	// route-level guards just reject obvious cases before any DB work.
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.TokenValidator))
	{
		stockHandler := handlers.NewStockHandler(base, cfg.StockService)
		stockGroup := api.Group("/stock")
		stockGroup.GET("/current",
			middleware.RequirePermission(security.PermViewStock), stockHandler.Current)
		stockGroup.GET("/ledger",
			middleware.RequirePermission(security.PermViewLedger), stockHandler.Ledger)
		stockGroup.GET("/reconcile",
			middleware.RequirePermission(security.PermViewLedger), stockHandler.Reconcile)

		docs := api.Group("/documents")

		receiptHandler := handlers.NewReceiptHandler(base, cfg.ReceiptService, cfg.Auditor)
		receiptHandler.RegisterRoutes(docs.Group("/receipts"))

		deliveryHandler := handlers.NewDeliveryHandler(base, cfg.DeliveryService, cfg.Auditor)
		deliveryHandler.RegisterRoutes(docs.Group("/deliveries"))

		transferHandler := handlers.NewTransferHandler(base, cfg.TransferService, cfg.Auditor)
		transferHandler.RegisterRoutes(docs.Group("/transfers"))

		adjustmentHandler := handlers.NewAdjustmentHandler(base, cfg.AdjustmentService, cfg.Auditor)
		adjustmentHandler.RegisterRoutes(docs.Group("/adjustments"))
	}

	return router
}
