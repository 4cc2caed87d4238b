package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/lobzik223/runa-ledger/internal/config"
	"github.com/lobzik223/runa-ledger/internal/database"
	"github.com/lobzik223/runa-ledger/internal/reconcile"
	reconcilestore "github.com/lobzik223/runa-ledger/internal/reconcile/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	drifting, err := run(context.Background(), logger)
	if err != nil {
		logger.Error("reconcile failed", "error", err)
		os.Exit(1)
	}

	// Non-zero exit flags drift to cron and CI wrappers.
	if drifting {
		os.Exit(2)
	}
}

func run(ctx context.Context, logger *slog.Logger) (bool, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return false, fmt.Errorf("loading config: %w", err)
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return false, fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	svc := reconcile.NewService(reconcilestore.New(db), logger)

	drifts, err := svc.Run(ctx)
	if err != nil {
		return false, err
	}

	return len(drifts) > 0, nil
}
