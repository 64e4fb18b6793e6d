package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// SQLKV implements KeyValueStore on the kv_slots table (see db/migrations).
type SQLKV struct {
	db *sql.DB
}

// NewSQLKV wraps an already migrated database.
func NewSQLKV(db *sql.DB) *SQLKV {
	return &SQLKV{db: db}
}

// Get loads the value for key.
func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query slot %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the value for key.
func (s *SQLKV) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_slots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save slot %s: %w", key, err)
	}
	return nil
}

// Remove deletes the row for key.
func (s *SQLKV) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove slot %s: %w", key, err)
	}
	return nil
}

// Ensure SQLKV implements the KeyValueStore interface.
var _ ports.KeyValueStore = (*SQLKV)(nil)
