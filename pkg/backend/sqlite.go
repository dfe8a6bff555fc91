package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS settings (
	name        TEXT PRIMARY KEY,
	value       TEXT NOT NULL,
	snapshot_id TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

// SQLite persists each option name as a JSON TEXT row. The connection pool is
// capped at a single connection because SQLite supports one writer at a time.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at path and applies the
// settings schema. WAL mode keeps reads concurrent with writes.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("backend: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("backend: connect: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("backend: apply pragma: %w", err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("backend: apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the blob stored under name, or nil when no row exists. A row
// whose value is not a JSON object loads as empty.
func (s *SQLite) Load(ctx context.Context, name string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE name = ?`, name,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("backend: load %q: %w", name, err)
	}

	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, nil
	}
	return values, nil
}

// Save upserts values as the full blob for name, stamping a fresh snapshot ID.
func (s *SQLite) Save(ctx context.Context, name string, values map[string]any) error {
	if values == nil {
		values = map[string]any{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("backend: marshal %q: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (name, value, snapshot_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			snapshot_id = excluded.snapshot_id,
			updated_at = excluded.updated_at`,
		name, string(payload), uuid.NewString(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("backend: save %q: %w", name, err)
	}
	return nil
}

// Meta returns the audit metadata recorded by the last save under name.
func (s *SQLite) Meta(ctx context.Context, name string) (Meta, bool, error) {
	var snapshotID, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot_id, updated_at FROM settings WHERE name = ?`, name,
	).Scan(&snapshotID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, false, nil
	}
	if err != nil {
		return Meta{}, false, fmt.Errorf("backend: meta %q: %w", name, err)
	}

	meta := Meta{SnapshotID: snapshotID}
	if parsed, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		meta.UpdatedAt = parsed
	}
	return meta, true, nil
}
