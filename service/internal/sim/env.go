// internal/sim/env.go
package sim

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jgwest/fridai/engine"
	"github.com/jgwest/fridai/engine/catalog"
	"github.com/jgwest/fridai/service/internal/config"
	"github.com/jgwest/fridai/service/internal/replay"
)

// LoadEnv builds the game environment of a run: the card set named by
// cfg.Cards (the standard set when empty) and the rules cfg selects. It
// also returns the checksum of the card text for saved states.
func LoadEnv(cfg config.Config) (*engine.Env, string, error) {
	var (
		cat  *engine.Catalog
		text []byte
		err  error
	)
	if cfg.Cards == "" {
		text = []byte(catalog.Text())
		cat, err = catalog.Standard()
	} else {
		if text, err = os.ReadFile(cfg.Cards); err != nil {
			return nil, "", fmt.Errorf("read cards: %w", err)
		}
		cat, err = catalog.Parse(bytes.NewReader(text))
	}
	if err != nil {
		return nil, "", fmt.Errorf("load cards: %w", err)
	}

	rules := engine.DefaultRules()
	rules.Level = cfg.Level
	rules.Verify = cfg.Verify
	if cfg.Budget > 0 {
		rules.NodeBudget = cfg.Budget
	}
	return engine.NewEnv(cat, rules), replay.Checksum(text), nil
}
