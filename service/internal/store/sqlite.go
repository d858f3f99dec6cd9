// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT    NOT NULL,
	worker      INTEGER NOT NULL,
	seed        INTEGER NOT NULL,
	finished_at TEXT    NOT NULL,
	result      TEXT    NOT NULL,
	life        INTEGER NOT NULL,
	phase_score INTEGER NOT NULL,
	steps       INTEGER NOT NULL,
	searches    INTEGER NOT NULL,
	nodes       INTEGER NOT NULL,
	elapsed_ms  INTEGER NOT NULL
)`

const sqliteInsert = `INSERT INTO results
	(run_id, worker, seed, finished_at, result, life, phase_score, steps, searches, nodes, elapsed_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLite stores results in a local SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the
// results table exists.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create results table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Write implements Sink.
func (s *SQLite) Write(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, sqliteInsert,
		rec.RunID.String(), rec.Worker, dbSeed(rec.Seed), rec.Finished.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		rec.Result(), rec.Life, rec.PhaseScore, rec.Steps, rec.Searches, rec.Nodes, rec.Elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// Summary counts the stored games of one run.
type Summary struct {
	Games int
	Wins  int
	Nodes int64
}

// Summary returns the totals recorded for run.
func (s *SQLite) Summary(ctx context.Context, run string) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(result = 'win'), 0), COALESCE(SUM(nodes), 0) FROM results WHERE run_id = ?`,
		run).Scan(&sum.Games, &sum.Wins, &sum.Nodes)
	if err != nil {
		return Summary{}, fmt.Errorf("summarise run %s: %w", run, err)
	}
	return sum, nil
}

// Close implements Sink.
func (s *SQLite) Close() error { return s.db.Close() }
