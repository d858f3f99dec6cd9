// internal/store/store.go

// Package store persists the outcome of every simulated game. The result
// file is always written; SQLite, Postgres and Redis sinks are added when
// configured.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jgwest/fridai/engine/agent"
	"github.com/jgwest/fridai/service/internal/config"
	"github.com/sirupsen/logrus"
)

// DateLayout is the timestamp layout of the result file.
const DateLayout = "Mon Jan 2 15:04:05 PM"

// Record is one finished game.
type Record struct {
	RunID      uuid.UUID
	Worker     int
	Seed       uint64
	Finished   time.Time
	Won        bool
	Life       int
	PhaseScore int
	Steps      int
	Searches   int
	Nodes      int
	Elapsed    time.Duration
}

// NewRecord builds the record of a game played by worker in run.
func NewRecord(run uuid.UUID, worker int, out agent.Outcome, finished time.Time) Record {
	return Record{
		RunID:      run,
		Worker:     worker,
		Seed:       out.Seed,
		Finished:   finished,
		Won:        out.Result == agent.ResultWin,
		Life:       out.Life,
		PhaseScore: out.PhaseScore(),
		Steps:      out.Steps,
		Searches:   out.Searches,
		Nodes:      out.Nodes,
		Elapsed:    out.Elapsed,
	}
}

// Line returns the result file line: seed,date,life,phaseScore.
func (r Record) Line() string {
	return strconv.FormatUint(r.Seed, 10) + "," + r.Finished.Format(DateLayout) + "," +
		strconv.Itoa(r.Life) + "," + strconv.Itoa(r.PhaseScore)
}

// Result returns "win" or "loss".
func (r Record) Result() string {
	if r.Won {
		return agent.ResultWin.String()
	}
	return agent.ResultLoss.String()
}

// dbSeed maps a seed onto a signed 64-bit column, keeping its bit pattern.
func dbSeed(seed uint64) int64 { return int64(seed) }

// Sink receives every finished game. Implementations are safe for
// concurrent use.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// Multi writes each record to every sink.
type Multi struct {
	sinks []Sink
}

// NewMulti returns a sink fanning out to sinks.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Add appends a sink.
func (m *Multi) Add(s Sink) { m.sinks = append(m.sinks, s) }

// Len returns the number of sinks.
func (m *Multi) Len() int { return len(m.sinks) }

// Write implements Sink. Every sink is attempted; the errors are joined.
func (m *Multi) Write(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Sink.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open builds the sinks named by cfg, starting with the result file. On
// error every sink already opened is closed.
func Open(ctx context.Context, cfg config.StoreConfig, resultPath string, log *logrus.Entry) (*Multi, error) {
	m := NewMulti()
	fail := func(err error) (*Multi, error) {
		m.Close()
		return nil, err
	}

	f, err := OpenFile(resultPath)
	if err != nil {
		return fail(err)
	}
	m.Add(f)

	if cfg.SQLitePath != "" {
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return fail(fmt.Errorf("sqlite sink: %w", err))
		}
		m.Add(s)
		log.WithField("path", cfg.SQLitePath).Info("SQLite result sink enabled")
	}
	if cfg.PostgresDSN != "" {
		p, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return fail(fmt.Errorf("postgres sink: %w", err))
		}
		m.Add(p)
		log.Info("Postgres result sink enabled")
	}
	if cfg.RedisAddr != "" {
		r, err := OpenRedis(ctx, cfg.RedisAddr, cfg.RedisStream)
		if err != nil {
			return fail(fmt.Errorf("redis sink: %w", err))
		}
		m.Add(r)
		log.WithFields(logrus.Fields{"addr": cfg.RedisAddr, "stream": cfg.RedisStream}).Info("Redis result sink enabled")
	}
	return m, nil
}
