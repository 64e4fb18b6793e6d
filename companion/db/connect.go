// Package db opens the embedded libsql database used by the "libsql" storage
// backend and keeps its schema current with goose.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "github.com/tursodatabase/go-libsql"
)

//go:embed migrations/*.sql
var migrations embed.FS

// LibSQLEmbeddedConfig holds configuration for embedded libsql connections
type LibSQLEmbeddedConfig struct {
	DatabasePath string // Path to .db file
	Logger       zerolog.Logger
}

// ConnectToDB opens (creating if needed) the database at path and migrates it.
func ConnectToDB(ctx context.Context, path string, logger zerolog.Logger) (*sql.DB, error) {
	return ConnectToDBWithConfig(ctx, &LibSQLEmbeddedConfig{DatabasePath: path, Logger: logger})
}

func ConnectToDBWithConfig(ctx context.Context, config *LibSQLEmbeddedConfig) (*sql.DB, error) {
	// Ensure database directory exists for embedded mode
	dir := filepath.Dir(config.DatabasePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create database directory %s: %w", dir, err)
	}

	if _, err := os.Stat(config.DatabasePath); os.IsNotExist(err) {
		config.Logger.Info().Str("path", config.DatabasePath).Msg("Database not found, creating a new one")
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", config.DatabasePath)
	config.Logger.Debug().Str("dsn", dsn).Msg("Connecting to embedded libsql")

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql connection: %w", err)
	}

	if err := verifyConnection(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := Migrate(ctx, db, config.Logger); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectTurso, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	for _, r := range results {
		logger.Debug().
			Int64("version", r.Source.Version).
			Dur("duration", r.Duration).
			Msg("Applied migration")
	}
	return nil
}

func verifyConnection(ctx context.Context, db *sql.DB) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("basic connectivity test failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("basic connectivity test failed: unexpected result %d", result)
	}
	return nil
}
