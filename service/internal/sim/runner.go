// internal/sim/runner.go

// Package sim plays many games in parallel and records their outcomes.
//
// Worker k of n plays seeds initial+k, initial+k+n, initial+2n+k and so
// on, so a run with a fixed initial seed and worker count always plays the
// same games. The first invariant violation stops every worker; the
// failing state is saved so the game can be replayed.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jgwest/fridai/engine"
	"github.com/jgwest/fridai/engine/agent"
	"github.com/jgwest/fridai/service/internal/config"
	"github.com/jgwest/fridai/service/internal/replay"
	"github.com/jgwest/fridai/service/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ReportInterval is how often throughput is logged during a run.
const ReportInterval = 12 * time.Second

// Summary is what a finished run played.
type Summary struct {
	RunID       uuid.UUID
	InitialSeed uint64
	Games       int
	Wins        int
	Throughput  Report
}

// Runner plays games on Config.Threads workers until the run time is up,
// every worker has played Config.Games games, or an invariant breaks.
type Runner struct {
	Env      *engine.Env
	Config   config.Config
	Sink     store.Sink
	Log      *logrus.Entry
	Checksum string // checksum of the card file, stored with saved states

	RunID      uuid.UUID
	Throughput *Throughput

	now    func() time.Time
	report time.Duration
}

// NewRunner returns a runner with a fresh run id.
func NewRunner(env *engine.Env, cfg config.Config, sink store.Sink, log *logrus.Entry) *Runner {
	id := uuid.New()
	return &Runner{
		Env:        env,
		Config:     cfg,
		Sink:       sink,
		Log:        log.WithField("run", id.String()),
		RunID:      id,
		Throughput: NewThroughput(),
		now:        time.Now,
		report:     ReportInterval,
	}
}

// InitialSeed returns the configured seed, or a random one.
func (r *Runner) InitialSeed() uint64 {
	if r.Config.HasSeed {
		return r.Config.Seed
	}
	return rand.Uint64()
}

type tally struct {
	games, wins int
}

// Run plays until done. Reaching the time limit or cancelling ctx ends the
// run without error; the game each worker was playing is dropped.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if d := r.Config.Duration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	threads := r.Config.Threads
	initial := r.InitialSeed()
	sum := Summary{RunID: r.RunID, InitialSeed: initial}
	r.Log.WithFields(logrus.Fields{
		"seed":    initial,
		"threads": threads,
		"budget":  r.Env.Rules.NodeBudget,
	}).Info("Starting run")
	r.runLog(fmt.Sprintf("Run %s: initial seed %d, %d threads", r.RunID, initial, threads))

	stopReport := make(chan struct{})
	reportDone := make(chan struct{})
	go func() {
		defer close(reportDone)
		t := time.NewTicker(r.report)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				r.Throughput.Log(r.Log)
			case <-stopReport:
				return
			}
		}
	}()

	tallies := make([]tally, threads)
	g, gctx := errgroup.WithContext(ctx)
	for w := range threads {
		g.Go(func() error {
			return r.work(gctx, w, initial+uint64(w), uint64(threads), &tallies[w])
		})
	}
	err := g.Wait()
	close(stopReport)
	<-reportDone

	for _, t := range tallies {
		sum.Games += t.games
		sum.Wins += t.wins
	}
	sum.Throughput = r.Throughput.Report()
	r.Log.WithFields(logrus.Fields{"games": sum.Games, "wins": sum.Wins}).Info("Final throughput")
	r.Throughput.Log(r.Log)
	if r.Config.Perf != "" {
		if perr := r.Throughput.WritePerf(r.Config.Perf); perr != nil {
			r.Log.WithError(perr).Error("Failed writing perf file")
		}
	}
	return sum, err
}

// work plays seeds seed, seed+inc, ... on one worker.
func (r *Runner) work(ctx context.Context, worker int, seed, inc uint64, t *tally) error {
	log := r.Log.WithField("worker", worker)
	p := agent.NewPlayer(r.Env)
	last := r.now()
	p.OnDecision = func(d agent.Decision) {
		now := r.now()
		if d.Search != nil {
			r.Throughput.Add(worker, d.Search.Expanded, now.Sub(last))
		}
		last = now
	}

	for n := 0; r.Config.Games == 0 || n < r.Config.Games; n++ {
		if ctx.Err() != nil {
			return nil
		}
		last = r.now()
		log.WithField("seed", seed).Debug("Starting game")

		out, err := p.Play(ctx, seed)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return r.fail(log, err)
		}

		t.games++
		if out.Result == agent.ResultWin {
			t.wins++
		}
		rec := store.NewRecord(r.RunID, worker, out, r.now())
		if err := r.Sink.Write(ctx, rec); err != nil {
			log.WithError(err).WithField("seed", seed).Warn("Failed recording result")
		}
		log.WithFields(logrus.Fields{
			"seed":       seed,
			"result":     out.Result,
			"life":       out.Life,
			"phaseScore": out.PhaseScore(),
			"steps":      out.Steps,
		}).Debug("Finished game")

		seed += inc
	}
	return nil
}

// fail saves the state behind an invariant violation and returns err,
// which stops the run.
func (r *Runner) fail(log *logrus.Entry, err error) error {
	var re *agent.ReplayError
	if !errors.As(err, &re) {
		log.WithError(err).Error("Game failed")
		return err
	}
	log = log.WithFields(logrus.Fields{"seed": re.Seed, "rngCount": re.Count})
	log.WithError(re.Err).Error("Invariant violated")
	r.runLog(fmt.Sprintf("Failed on random seed %d: %v", re.Seed, re.Err))
	r.runLog(fmt.Sprintf("Random seed is: %d iterations: %d", re.Seed, re.Count))

	if re.State != nil {
		data, encErr := replay.Encode(replay.Snapshot{
			State:    re.State,
			Seed:     re.Seed,
			Count:    re.Count,
			Checksum: r.Checksum,
			Err:      re.Err,
		})
		if encErr == nil {
			encErr = os.WriteFile(r.Config.StatePath(), data, 0o644)
		}
		if encErr != nil {
			log.WithError(encErr).Error("Failed saving state")
		} else {
			log.WithField("path", r.Config.StatePath()).Info("Saved failing state")
		}
	}
	return err
}

func (r *Runner) runLog(line string) {
	if err := store.AppendLine(r.Config.RunLogPath(), line); err != nil {
		r.Log.WithError(err).Warn("Failed writing run log")
	}
}

// Replay loads a saved state and plays it to the end, drawing from the
// random source as the failed game did from that point.
func Replay(ctx context.Context, env *engine.Env, data []byte, checksum string, p *agent.Player) (agent.Outcome, error) {
	snap, err := replay.Decode(data, env, checksum)
	if err != nil {
		return agent.Outcome{}, err
	}
	rng := engine.ReplayRand(snap.Seed, snap.Count)
	return p.PlayFrom(ctx, snap.State, rng, agent.Outcome{Seed: snap.Seed})
}
