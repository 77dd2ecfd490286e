// Package main provides a CLI tool for seeding opening stock balances.
//
// Opening quantities go through the movement engine so seeded stock has
// ledger entries like any other movement. Seed entries carry a nil
// transaction id and the SEED reference. Input is a CSV of
// product_id,warehouse_id,quantity rows.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"

	"stocktrack/internal/config"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/security"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain/movement"
	"stocktrack/internal/infrastructure/storage/postgres"
	"stocktrack/internal/infrastructure/storage/postgres/stock_repo"
	"stocktrack/pkg/logger"
)

func main() {
	var csvPath string
	flag.StringVar(&csvPath, "file", "", "CSV file with product_id,warehouse_id,quantity rows")
	flag.Parse()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if csvPath == "" {
		log.Fatal("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load configuration", "error", err)
	}

	ctx := security.WithActor(context.Background(), security.SystemActor())

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.ConnectionString()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	effects, err := readEffects(csvPath)
	if err != nil {
		log.Fatalw("failed to read seed file", "error", err)
	}
	if len(effects) == 0 {
		log.Info("nothing to seed")
		return
	}

	txManager := postgres.NewTxManager(pool)
	engine := movement.NewEngine(txManager, stock_repo.NewStockRepo(txManager))

	doc := &seedDocument{effects: effects}
	if err := engine.Apply(ctx, doc, func(context.Context) error { return nil }); err != nil {
		log.Fatalw("failed to apply opening balances", "error", err)
	}

	log.Infow("seeding completed", "entries", len(effects))
}

// readEffects parses the CSV into positive receipt-type effects.
func readEffects(path string) ([]movement.Effect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	var effects []movement.Effect
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(record) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields, got %d", line, len(record))
		}

		productID, err := id.Parse(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad product id: %w", line, err)
		}
		warehouseID, err := id.Parse(record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad warehouse id: %w", line, err)
		}
		qty, err := types.NewQuantityFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad quantity: %w", line, err)
		}
		if !qty.IsPositive() {
			return nil, fmt.Errorf("line %d: quantity must be positive", line)
		}

		effects = append(effects, movement.Effect{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Type:        entity.TxTypeReceipt,
			Change:      qty,
			Notes:       "system-seeded",
		})
	}
	return effects, nil
}

// seedDocument adapts the CSV rows to the engine's document contract.
type seedDocument struct {
	effects []movement.Effect
}

func (d *seedDocument) DocumentID() id.ID               { return id.Nil() }
func (d *seedDocument) DocumentRef() string             { return "SEED" }
func (d *seedDocument) IsApplied() bool                 { return false }
func (d *seedDocument) StockEffects() []movement.Effect { return d.effects }
