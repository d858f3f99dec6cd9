// cmd/fridai-mcp/main.go

// Command fridai-mcp serves interactive Friday games over MCP on stdio.
// It reads the same configuration as fridai; logs go to stderr. When a feed
// address is configured, every game event is also streamed there.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jgwest/fridai/service/internal/config"
	"github.com/jgwest/fridai/service/internal/feed"
	fridaimcp "github.com/jgwest/fridai/service/internal/mcp"
	"github.com/jgwest/fridai/service/internal/sim"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}
	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		return err
	}
	env, checksum, err := sim.LoadEnv(cfg)
	if err != nil {
		return err
	}

	log := logrus.NewEntry(logger)
	tools := fridaimcp.NewTools(env, checksum, log)
	if cfg.Feed.Addr != "" {
		ctx, cancel := context.WithCancel(context.Background())
		feedDone := make(chan struct{})
		hub := feed.NewHub(cfg.Feed.JWTSecret, log.WithField("component", "feed"))
		tools.Broadcast = hub.PublishGame
		go func() {
			defer close(feedDone)
			if err := feed.Serve(ctx, cfg.Feed.Addr, hub, log); err != nil {
				log.WithError(err).Error("Feed server failed")
			}
		}()
		// Shut the feed down before returning, whatever ends the stdio loop.
		defer func() {
			cancel()
			<-feedDone
		}()
	}

	s := server.NewMCPServer("fridai", "1.0.0")
	fridaimcp.RegisterTools(s, tools)
	return server.ServeStdio(s)
}
