// internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "FRIDAI_"

// StoreConfig selects the result sinks. An empty DSN or address disables
// that sink; the result file is always written.
type StoreConfig struct {
	SQLitePath  string `yaml:"sqlite"`
	PostgresDSN string `yaml:"postgres"`
	RedisAddr   string `yaml:"redis"`
	RedisStream string `yaml:"redisStream"`
}

// FeedConfig configures the live result feed. An empty Addr disables it.
type FeedConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwtSecret"`
}

// Config holds the settings of a simulation run.
type Config struct {
	Minutes  float64 `yaml:"minutes"` // 0 runs until interrupted
	Games    int     `yaml:"games"`   // games per worker, 0 for no limit
	Budget   int     `yaml:"budget"`  // search nodes per decision
	Threads  int     `yaml:"threads"`
	Seed     uint64  `yaml:"seed"`
	HasSeed  bool    `yaml:"-"` // Seed was set explicitly; otherwise a random seed is drawn
	Level    int     `yaml:"level"`
	Verify   bool    `yaml:"verify"`
	Cards    string  `yaml:"cards"` // card definition file, empty for the standard set
	Result   string  `yaml:"result"`
	Perf     string  `yaml:"perf"`
	LogLevel string  `yaml:"logLevel"`

	Store StoreConfig `yaml:"store"`
	Feed  FeedConfig  `yaml:"feed"`
}

// Default returns the settings used when nothing else is given.
func Default() Config {
	return Config{
		Budget:   200000,
		Threads:  1,
		Level:    1,
		Result:   "results.csv",
		Perf:     "perf.csv",
		LogLevel: "info",
		Store:    StoreConfig{RedisStream: "fridai:results"},
	}
}

// Duration returns the run length, 0 for no limit.
func (c Config) Duration() time.Duration {
	return time.Duration(c.Minutes * float64(time.Minute))
}

// StatePath is where the failing state is written after an invariant error.
func (c Config) StatePath() string { return c.Result + ".state.json" }

// RunLogPath is the run log kept next to the result file.
func (c Config) RunLogPath() string { return c.Result + ".run-log.txt" }

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.Minutes < 0:
		return fmt.Errorf("minutes must be >= 0, got %v", c.Minutes)
	case c.Games < 0:
		return fmt.Errorf("games must be >= 0, got %d", c.Games)
	case c.Budget < 0:
		return fmt.Errorf("budget must be >= 0, got %d", c.Budget)
	case c.Threads < 1:
		return fmt.Errorf("threads must be >= 1, got %d", c.Threads)
	case c.Level < 1 || c.Level > 4:
		return fmt.Errorf("level must be in 1..4, got %d", c.Level)
	case c.Result == "":
		return errors.New("result path is required")
	case c.Feed.Addr != "" && c.Feed.JWTSecret == "":
		return errors.New("feed requires a jwt secret")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

// Parse decodes a YAML document over c. Fields absent from the document
// keep their current values.
func (c *Config) Parse(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	if c.Seed != 0 {
		c.HasSeed = true
	}
	return nil
}

// LoadFile reads a YAML config file over c.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return c.Parse(f)
}

// ApplyEnv overrides c from FRIDAI_* variables, as returned by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvPrefix + "MINUTES"); ok {
		m, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMINUTES: %w", EnvPrefix, err))
		} else {
			c.Minutes = m
		}
	}
	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		s, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEED: %w", EnvPrefix, err))
		} else {
			c.Seed, c.HasSeed = s, true
		}
	}
	if v, ok := lookup(EnvPrefix + "VERIFY"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sVERIFY: %w", EnvPrefix, err))
		} else {
			c.Verify = b
		}
	}
	num("GAMES", &c.Games)
	num("BUDGET", &c.Budget)
	num("THREADS", &c.Threads)
	num("LEVEL", &c.Level)
	str("CARDS", &c.Cards)
	str("RESULT", &c.Result)
	str("PERF", &c.Perf)
	str("LOG_LEVEL", &c.LogLevel)
	str("SQLITE", &c.Store.SQLitePath)
	str("POSTGRES_DSN", &c.Store.PostgresDSN)
	str("REDIS_ADDR", &c.Store.RedisAddr)
	str("REDIS_STREAM", &c.Store.RedisStream)
	str("FEED_ADDR", &c.Feed.Addr)
	str("JWT_SECRET", &c.Feed.JWTSecret)
	return errors.Join(errs...)
}

// Load builds the run configuration from, in increasing precedence: the
// defaults, the YAML file named by -config, a .env file in the working
// directory, the process environment and the command-line flags.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Default()

	configPath := fs.String("config", "", "path to YAML config file")
	minutes := fs.Float64("minutes", 0, "time to run in minutes, 0 for no limit")
	budget := fs.Int("budget", 0, "search nodes expanded per decision")
	perf := fs.String("perf", "", "throughput output file")
	threads := fs.Int("threads", 0, "number of worker goroutines")
	result := fs.String("result", "", "result output file")
	seed := fs.Uint64("seed", 0, "initial seed, random when unset")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return cfg, err
		}
	}

	// A missing .env file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "minutes":
			cfg.Minutes = *minutes
		case "budget":
			cfg.Budget = *budget
		case "perf":
			cfg.Perf = *perf
		case "threads":
			cfg.Threads = *threads
		case "result":
			cfg.Result = *result
		case "seed":
			cfg.Seed, cfg.HasSeed = *seed, true
		}
	})
	return cfg, cfg.Validate()
}
