// Package committer implements the Sequential Committer (spec §4.4): it
// applies the RowBatches produced by pkg/checkpoint to a relational store,
// one checkpoint's worth at a time, inside a single transaction, in
// strictly ascending checkpoint-sequence order.
package committer

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the relational database handle. Grounded on
// AKJUS-bsc-erigon's use of modernc.org/sqlite: a pure-Go driver avoids a
// cgo dependency in the indexer binary, at the cost of the richer
// concurrent-write behavior a server-grade engine like Postgres would
// give (an acceptable tradeoff for a single-writer sequential committer).
type Store struct {
	db *sql.DB
}

// Open opens (and, for a file DSN, creates) the sqlite database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("committer: open store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies every CREATE TABLE IF NOT EXISTS statement the schema
// declares (pkg/schema.Schema.DDL), idempotently.
func (s *Store) Migrate(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("committer: migrate: %w", err)
		}
	}
	return nil
}

// ExecTx runs fn inside a single transaction, committing on success and
// rolling back on any error fn returns.
func (s *Store) ExecTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("committer: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committer: commit tx: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for pkg/query's read-only queries.
func (s *Store) DB() *sql.DB {
	return s.db
}
