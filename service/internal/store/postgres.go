// internal/store/postgres.go
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS fridai_results (
	id          BIGSERIAL PRIMARY KEY,
	run_id      UUID        NOT NULL,
	worker      INTEGER     NOT NULL,
	seed        BIGINT      NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	result      TEXT        NOT NULL,
	life        INTEGER     NOT NULL,
	phase_score INTEGER     NOT NULL,
	steps       INTEGER     NOT NULL,
	searches    INTEGER     NOT NULL,
	nodes       BIGINT      NOT NULL,
	elapsed_ms  BIGINT      NOT NULL
)`

const postgresInsert = `INSERT INTO fridai_results
	(run_id, worker, seed, finished_at, result, life, phase_score, steps, searches, nodes, elapsed_ms)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Postgres stores results in a Postgres table through a connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the results table exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create results table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Write implements Sink.
func (p *Postgres) Write(ctx context.Context, rec Record) error {
	_, err := p.pool.Exec(ctx, postgresInsert, postgresArgs(rec)...)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func postgresArgs(rec Record) []any {
	return []any{
		rec.RunID, rec.Worker, dbSeed(rec.Seed), rec.Finished, rec.Result(),
		rec.Life, rec.PhaseScore, rec.Steps, rec.Searches, int64(rec.Nodes), rec.Elapsed.Milliseconds(),
	}
}

// Close implements Sink.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
