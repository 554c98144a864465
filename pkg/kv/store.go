// Package kv provides the durable string-keyed text store the journal is persisted in.
package kv

import (
	"context"
	"database/sql"
	"errors"
)

// Store is a durable key/value store of text values.
// Set overwrites the whole value; Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

const (
	getValueStatement = `
	SELECT value
	FROM kv_store
	WHERE key = ?
	`

	setValueStatement = `
	INSERT INTO kv_store (key, value)
	VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = unixepoch()
	`

	deleteValueStatement = `
	DELETE FROM kv_store
	WHERE key = ?
	`

	listKeysStatement = `
	SELECT key
	FROM kv_store
	ORDER BY key
	`
)

// SQLiteStore keeps values in the kv_store table created by db.InitializeSchema.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, getValueStatement, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set writes value under key in a single statement, so readers never see a partial value.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, setValueStatement, key, value)
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, deleteValueStatement, key)
	return err
}

// Keys lists every key currently held, sorted.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listKeysStatement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}
