// Package main is the entry point for the stocktrack API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stocktrack/internal/config"
	"stocktrack/internal/core/security"
	"stocktrack/internal/domain/docflow"
	"stocktrack/internal/domain/documents/adjustment"
	"stocktrack/internal/domain/documents/delivery"
	"stocktrack/internal/domain/documents/receipt"
	"stocktrack/internal/domain/documents/transfer"
	"stocktrack/internal/domain/movement"
	"stocktrack/internal/domain/stock"
	v1 "stocktrack/internal/infrastructure/http/v1"
	"stocktrack/internal/infrastructure/storage/postgres"
	"stocktrack/internal/infrastructure/storage/postgres/document_repo"
	"stocktrack/internal/infrastructure/storage/postgres/stock_repo"
	"stocktrack/pkg/logger"
	"stocktrack/pkg/refnum"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting stocktrack server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.ConnectionString())
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	stockRepo := stock_repo.NewStockRepo(txManager)
	receiptRepo := document_repo.NewReceiptRepo(txManager)
	deliveryRepo := document_repo.NewDeliveryRepo(txManager)
	transferRepo := document_repo.NewTransferRepo(txManager)
	adjustmentRepo := document_repo.NewAdjustmentRepo(txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Domain services ---
	engine := movement.NewEngine(txManager, stockRepo)
	machine := docflow.NewMachine()
	numbers := refnum.New()

	stockService := stock.NewService(stockRepo, txManager)
	receiptService := receipt.NewService(receiptRepo, engine, machine, numbers)
	deliveryService := delivery.NewService(deliveryRepo, engine, machine, numbers)
	transferService := transfer.NewService(transferRepo, engine, machine, numbers)
	adjustmentService := adjustment.NewService(adjustmentRepo, stockRepo, engine, machine, numbers)

	tokenService := security.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:              pool,
		Logger:            log,
		TokenValidator:    tokenService,
		Auditor:           auditService,
		StockService:      stockService,
		ReceiptService:    receiptService,
		DeliveryService:   deliveryService,
		TransferService:   transferService,
		AdjustmentService: adjustmentService,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
