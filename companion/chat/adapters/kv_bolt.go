package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

var slotsBucket = []byte("slots")

// BoltKV stores slots in a single bbolt bucket.
type BoltKV struct {
	db *bolt.DB
}

// NewBoltKV opens (or creates) the database file at path.
func NewBoltKV(path string) (*BoltKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("could not create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(slotsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create slots bucket: %w", err)
	}

	return &BoltKV{db: db}, nil
}

// Get copies the value out of the read transaction.
func (b *BoltKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(slotsBucket)
		if bucket == nil {
			return nil
		}
		if v := bucket.Get([]byte(key)); v != nil {
			value = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return value, value != nil, nil
}

// Set writes key in its own transaction.
func (b *BoltKV) Set(ctx context.Context, key string, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(slotsBucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

// Remove deletes key; bbolt treats a missing key as success.
func (b *BoltKV) Remove(ctx context.Context, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(slotsBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to remove slot %s: %w", key, err)
	}
	return nil
}

// Close releases the file lock.
func (b *BoltKV) Close() error {
	return b.db.Close()
}

// Ensure BoltKV implements the KeyValueStore interface.
var _ ports.KeyValueStore = (*BoltKV)(nil)
