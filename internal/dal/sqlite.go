package dal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore persists records in the `records` table created by package db.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an opened database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, kind Kind, key Key, dst any) (bool, error) {
	var raw []byte
	query := "SELECT value FROM records WHERE kind = ? AND key = ?"
	err := s.db.QueryRowContext(ctx, query, string(kind), key.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error querying record: %w", err)
	}
	return true, json.Unmarshal(raw, dst)
}

func (s *SQLiteStore) Set(ctx context.Context, kind Kind, key Key, patch any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing []byte
	err = tx.QueryRowContext(ctx,
		"SELECT value FROM records WHERE kind = ? AND key = ?",
		string(kind), key.String(),
	).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("error querying record: %w", err)
	}

	merged, err := mergeJSON(existing, patch)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (kind, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (kind, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(kind), key.String(), merged, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("error writing record: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Update(ctx context.Context, kind Kind, key Key, patch any) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var existing []byte
	err = tx.QueryRowContext(ctx,
		"SELECT value FROM records WHERE kind = ? AND key = ?",
		string(kind), key.String(),
	).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error querying record: %w", err)
	}

	merged, err := mergeJSON(existing, patch)
	if err != nil {
		return false, err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE records SET value = ?, updated_at = ? WHERE kind = ? AND key = ?",
		merged, time.Now().UnixMilli(), string(kind), key.String(),
	)
	if err != nil {
		return false, fmt.Errorf("error writing record: %w", err)
	}
	return true, tx.Commit()
}

func (s *SQLiteStore) Delete(ctx context.Context, kind Kind, key Key) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE kind = ? AND key = ?", string(kind), key.String())
	if err != nil {
		return fmt.Errorf("error deleting record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, kind Kind, prefix Key, fn func(raw json.RawMessage) error) error {
	p := prefix.prefix()
	rows, err := s.db.QueryContext(ctx,
		"SELECT value FROM records WHERE kind = ? AND substr(key, 1, length(?)) = ? ORDER BY key",
		string(kind), p, p,
	)
	if err != nil {
		return fmt.Errorf("error listing records: %w", err)
	}
	defer rows.Close()

	var values [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		values = append(values, raw)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, v := range values {
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
