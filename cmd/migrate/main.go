package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lobzik223/runa-ledger/internal/config"
	"github.com/lobzik223/runa-ledger/internal/database"
	"github.com/lobzik223/runa-ledger/migrations"
)

type migration struct {
	version  string
	name     string
	file     string
	script   []byte
	checksum string
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(context.Background(), logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("ensuring schema_migrations table: %w", err)
	}

	migs, err := loadMigrations()
	if err != nil {
		return err
	}

	applied := 0

	for _, mig := range migs {
		storedChecksum, found, err := appliedChecksum(ctx, db, mig.version)
		if err != nil {
			return err
		}

		if found {
			// An applied script must never change out from under its record.
			if storedChecksum != mig.checksum {
				return fmt.Errorf("migration %s was modified after being applied (checksum %s, recorded %s)",
					mig.file, mig.checksum, storedChecksum)
			}

			continue
		}

		if err := apply(ctx, db, mig); err != nil {
			return fmt.Errorf("applying %s: %w", mig.file, err)
		}

		logger.Info("applied migration", "version", mig.version, "name", mig.name)
		applied++
	}

	if applied == 0 {
		logger.Info("schema up to date")
	}

	return nil
}

// loadMigrations reads the embedded scripts in version order.
func loadMigrations() ([]migration, error) {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		files = append(files, e.Name())
	}
	sort.Strings(files)

	migs := make([]migration, 0, len(files))

	for _, file := range files {
		script, err := migrations.FS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", file, err)
		}

		version, name := splitMigrationFile(file)

		migs = append(migs, migration{
			version:  version,
			name:     name,
			file:     file,
			script:   script,
			checksum: fmt.Sprintf("%x", sha256.Sum256(script)),
		})
	}

	return migs, nil
}

// splitMigrationFile splits "0001_init.sql" into version "0001" and name
// "init".
func splitMigrationFile(file string) (version, name string) {
	base := strings.TrimSuffix(file, ".sql")

	version, name, found := strings.Cut(base, "_")
	if !found {
		return base, base
	}

	return version, name
}

func appliedChecksum(ctx context.Context, db *sql.DB, version string) (string, bool, error) {
	var checksum string

	err := db.QueryRowContext(ctx,
		"SELECT checksum FROM schema_migrations WHERE version = $1", version,
	).Scan(&checksum)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}

		return "", false, fmt.Errorf("checking migration %s: %w", version, err)
	}

	return checksum, true, nil
}

func apply(ctx context.Context, db *sql.DB, mig migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(mig.script)); err != nil {
		return fmt.Errorf("executing script: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, checksum) VALUES ($1, $2, $3)",
		mig.version, mig.name, mig.checksum,
	); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	return tx.Commit()
}
