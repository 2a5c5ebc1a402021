// Package store is an optional out-of-process snapshot sink for
// engine.Serialize output, keyed by a caller-supplied document id.
// Nothing in the core nine components consults it: the engine's
// mutation and query APIs stay in-memory and synchronous, the way
// spec.md treats persistence as an external collaborator's concern. A
// host application wires this up when it wants durability.
//
// Grounded on sheetcore/interpreter/builtins_sql.go's sqlOpen/sqlQuery
// shape (open a handle, run parameterized statements, surface driver
// errors as a single wrapped error), adapted from database/sql's
// generic driver-string style to pgx/v5's native pool API — the
// idiomatic way to use this driver today is pgxpool, not the
// database/sql compatibility shim the teacher's builtin reaches for.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sheetcore/engine"
)

// Store persists engine.WireWorkbook snapshots to Postgres, one row
// per (document id, version).
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and ensures the snapshot table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sheetcore_snapshots (
			document_id TEXT NOT NULL,
			version     BIGINT NOT NULL,
			workbook    JSONB NOT NULL,
			saved_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (document_id, version)
		)`)
	if err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Save writes eng's current snapshot under documentID, tagged with its
// own version counter so a later Latest call returns the newest write.
func (s *Store) Save(ctx context.Context, documentID string, eng *engine.Engine) error {
	w := eng.Serialize()
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("store: marshal workbook: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sheetcore_snapshots (document_id, version, workbook) VALUES ($1, $2, $3)
		 ON CONFLICT (document_id, version) DO UPDATE SET workbook = EXCLUDED.workbook, saved_at = now()`,
		documentID, w.Version, payload)
	if err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	return nil
}

// Latest returns the most recently saved snapshot for documentID, or
// (nil, zero time, false, nil) if none exists.
func (s *Store) Latest(ctx context.Context, documentID string) (*engine.WireWorkbook, time.Time, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT workbook, saved_at FROM sheetcore_snapshots
		 WHERE document_id = $1 ORDER BY version DESC LIMIT 1`, documentID)
	var payload []byte
	var savedAt time.Time
	if err := row.Scan(&payload, &savedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("store: latest: %w", err)
	}
	var w engine.WireWorkbook
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("store: unmarshal workbook: %w", err)
	}
	return &w, savedAt, true, nil
}
