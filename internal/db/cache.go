package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Get reads a kv_cache entry.
func (db *DB) Get(key string) ([]byte, bool) {
	var value []byte
	err := db.conn.QueryRowContext(context.Background(), `SELECT value FROM kv_cache WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			db.logger.Warn("reading cache entry", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return value, true
}

// Set writes a kv_cache entry. A nil value removes it.
func (db *DB) Set(key string, value []byte) error {
	ctx := context.Background()
	if value == nil {
		if _, err := db.conn.ExecContext(ctx, `DELETE FROM kv_cache WHERE key = ?`, key); err != nil {
			return fmt.Errorf("deleting cache entry: %w", err)
		}
		return nil
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO kv_cache (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// DeletePrefix removes every kv_cache entry whose key starts with prefix.
func (db *DB) DeletePrefix(prefix string) (int, error) {
	res, err := db.conn.ExecContext(context.Background(),
		`DELETE FROM kv_cache WHERE substr(key, 1, length(?)) = ?`, prefix, prefix)
	if err != nil {
		return 0, fmt.Errorf("deleting cache entries under %q: %w", prefix, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting cache entries under %q: %w", prefix, err)
	}
	return int(n), nil
}
