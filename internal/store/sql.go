package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Dialect 区分 SQL 方言（占位符、时间函数、建表语句）
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectSQLite:
		return "sqlite"
	}
	return "unknown"
}

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) now() string {
	if d == DialectPostgres {
		return "now()"
	}
	return "CURRENT_TIMESTAMP"
}

func (d Dialect) schema() string {
	if d == DialectPostgres {
		return `CREATE TABLE IF NOT EXISTS kv_store (
			kv_key     TEXT PRIMARY KEY,
			kv_value   TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	}
	return `CREATE TABLE IF NOT EXISTS kv_store (
		kv_key     TEXT PRIMARY KEY,
		kv_value   TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
}

// SQLKV stores keys as rows of the kv_store table.
type SQLKV struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLKV(db *sql.DB, dialect Dialect) *SQLKV {
	return &SQLKV{db: db, dialect: dialect}
}

var _ KV = (*SQLKV)(nil)

// EnsureSchema creates the kv_store table if it does not exist.
func (s *SQLKV) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema()); err != nil {
		return fmt.Errorf("failed to create kv_store (%s): %w", s.dialect, err)
	}
	return nil
}

func (s *SQLKV) Get(ctx context.Context, key string) (string, error) {
	query := "SELECT kv_value FROM kv_store WHERE kv_key = " + s.dialect.placeholder(1)
	var value string
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrMiss
		}
		return "", err
	}
	return value, nil
}

func (s *SQLKV) Set(ctx context.Context, key string, value string) error {
	query := fmt.Sprintf(
		`INSERT INTO kv_store (kv_key, kv_value, updated_at) VALUES (%s, %s, %s)
		 ON CONFLICT (kv_key) DO UPDATE SET kv_value = EXCLUDED.kv_value, updated_at = EXCLUDED.updated_at`,
		s.dialect.placeholder(1), s.dialect.placeholder(2), s.dialect.now(),
	)
	_, err := s.db.ExecContext(ctx, query, key, value)
	return err
}

func (s *SQLKV) Delete(ctx context.Context, key string) error {
	query := "DELETE FROM kv_store WHERE kv_key = " + s.dialect.placeholder(1)
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}
