package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key VARCHAR PRIMARY KEY,
    value VARCHAR,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// DuckDBStore implements Store on a DuckDB kv_entries table. Each Get and
// Set is a single statement, which keeps the contract identical to the
// FileStore: per-call atomicity and nothing more.
type DuckDBStore struct {
	db   *sql.DB
	path string
}

// NewDuckDBStore opens (or creates) the DuckDB database at dbPath and
// ensures the kv schema exists.
func NewDuckDBStore(dbPath string) (*DuckDBStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if _, err := db.Exec(kvSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv schema: %w", err)
	}

	return &DuckDBStore{db: db, path: dbPath}, nil
}

// Close closes the underlying database.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

// Get implements Store.
func (s *DuckDBStore) Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	if len(keys) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		placeholders[i] = "?"
		args[i] = key
	}

	query := fmt.Sprintf(
		"SELECT key, value FROM kv_entries WHERE key IN (%s)",
		strings.Join(placeholders, ", "),
	)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query kv entries: %w", err)
	}
	defer rows.Close()

	result := make(map[string]json.RawMessage, len(keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan kv entry: %w", err)
		}
		result[key] = json.RawMessage(value)
	}
	return result, rows.Err()
}

// Set implements Store. Each key is upserted individually; there is no
// transaction spanning the batch, matching the store's weak contract.
func (s *DuckDBStore) Set(ctx context.Context, values map[string]json.RawMessage) error {
	for key, value := range values {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
			key, string(value),
		)
		if err != nil {
			return fmt.Errorf("upsert kv entry %q: %w", key, err)
		}
	}
	return nil
}
