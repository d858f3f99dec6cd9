// cmd/fridai/main.go

// Command fridai plays solo Friday games with the best-first search on
// several workers and records every result.
//
//	fridai -minutes 60 -threads 8 -budget 200000 -result results.csv
//
// With -replay it instead plays a state saved after an invariant error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgwest/fridai/engine"
	"github.com/jgwest/fridai/engine/agent"
	"github.com/jgwest/fridai/service/internal/config"
	"github.com/jgwest/fridai/service/internal/feed"
	"github.com/jgwest/fridai/service/internal/sim"
	"github.com/jgwest/fridai/service/internal/store"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	replayPath := flag.String("replay", "", "play a saved state file instead of running")
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}
	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		return err
	}
	log := logrus.NewEntry(logger)

	env, checksum, err := sim.LoadEnv(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *replayPath != "" {
		return replay(ctx, log, env, checksum, *replayPath)
	}

	sink, err := store.Open(ctx, cfg.Store, cfg.Result, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.WithError(err).Error("Failed closing result sinks")
		}
	}()

	feedDone := make(chan error, 1)
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	if cfg.Feed.Addr != "" {
		hub := feed.NewHub(cfg.Feed.JWTSecret, log.WithField("component", "feed"))
		sink.Add(hub)
		go func() { feedDone <- feed.Serve(feedCtx, cfg.Feed.Addr, hub, log) }()
	} else {
		feedDone <- nil
	}

	r := sim.NewRunner(env, cfg, sink, log)
	r.Checksum = checksum
	sum, runErr := r.Run(ctx)
	log.WithFields(logrus.Fields{
		"games":       sum.Games,
		"wins":        sum.Wins,
		"initialSeed": sum.InitialSeed,
		"perSecond":   sum.Throughput.TotalPerSecond,
	}).Info("Run finished")

	stopFeed()
	if err := <-feedDone; err != nil {
		log.WithError(err).Error("Feed server failed")
	}
	return runErr
}

func replay(ctx context.Context, log *logrus.Entry, env *engine.Env, checksum, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	p := agent.NewPlayer(env)
	out, err := sim.Replay(ctx, env, data, checksum, p)
	if err != nil {
		var re *agent.ReplayError
		if errors.As(err, &re) {
			log.WithError(re.Err).WithFields(logrus.Fields{"seed": re.Seed, "rngCount": re.Count}).Error("Invariant violated during replay")
		}
		return err
	}
	log.WithFields(logrus.Fields{
		"seed":       out.Seed,
		"result":     out.Result,
		"life":       out.Life,
		"phaseScore": out.PhaseScore(),
		"steps":      out.Steps,
	}).Info("Replay finished")
	return nil
}
