package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/jgwest/fridai/engine"
)

// Outcome is the result of one played game.
type Outcome struct {
	Seed     uint64
	Result   Result
	Life     int // life when the game ended; for a win, before the last action
	Phase    int // phase the game ended in, -1 in pirate combat
	Steps    int // actions taken
	Searches int // decisions that needed a search
	Nodes    int // nodes expanded over all searches
	Elapsed  time.Duration
}

// PhaseScore returns the phase score written to the result log.
func (o Outcome) PhaseScore() int { return PhaseScore(o.Result, o.Phase) }

// ReplayError wraps an invariant violation with what is needed to replay
// it: the seed, the random count at the start of the failing decision and
// the state the decision was made from.
type ReplayError struct {
	Seed  uint64
	Count uint64
	State engine.State
	Err   error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("seed %d count %d: %v", e.Seed, e.Count, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// Decision describes one action taken by Play.
type Decision struct {
	Step    int
	State   engine.State // state the action was taken from
	Action  engine.Action
	Choices int // legal actions after cycle breaking
	Search  *SearchResult
}

// Player plays whole games with a Searcher.
type Player struct {
	Env         *engine.Env
	Search      Searcher
	HistorySize int

	// OnDecision, if set, is called after every action is chosen.
	OnDecision func(Decision)
}

// NewPlayer returns a player using the env's node budget and history size.
func NewPlayer(env *engine.Env) *Player {
	hs := env.Rules.HistorySize
	if hs <= 0 {
		hs = DefaultHistorySize
	}
	return &Player{
		Env:         env,
		Search:      Searcher{Budget: env.Rules.NodeBudget},
		HistorySize: hs,
	}
}

// Play deals a game from seed and plays it to the end. Losing and winning
// are outcomes, not errors. An invariant violation is returned as a
// *ReplayError; ctx is checked between decisions and its error returned
// as is.
func (p *Player) Play(ctx context.Context, seed uint64) (Outcome, error) {
	rng := engine.NewRand(seed)
	out := Outcome{Seed: seed}

	g, err := engine.NewGame(p.Env, rng)
	if err != nil {
		return out, &ReplayError{Seed: seed, Err: err}
	}
	return p.PlayFrom(ctx, g, rng, out)
}

// PlayFrom plays state s to the end, drawing from rng. out carries the seed
// and any counts from earlier play.
func (p *Player) PlayFrom(ctx context.Context, s engine.State, rng *engine.Rand, out Outcome) (Outcome, error) {
	start := time.Now()
	hist := NewHistory(p.HistorySize)
	hist.Push(s)

	fail := func(count uint64, st engine.State, err error) (Outcome, error) {
		out.Elapsed += time.Since(start)
		return out, &ReplayError{Seed: out.Seed, Count: count, State: st, Err: err}
	}

	for {
		if err := ctx.Err(); err != nil {
			out.Elapsed += time.Since(start)
			return out, err
		}
		count := rng.Count()

		acts, err := s.Actions()
		if err != nil {
			return fail(count, s, err)
		}
		b := s.Common()
		if len(acts) == 0 {
			out.Result = ResultLoss
			out.Life = b.Life
			out.Phase = b.Slow.Phase
			out.Elapsed += time.Since(start)
			return out, nil
		}
		acts = hist.BreakCycle(s, acts)

		d := Decision{Step: out.Steps, State: s, Action: acts[0], Choices: len(acts)}
		if len(acts) > 1 {
			res, err := p.Search.Best(s, rng)
			if err != nil {
				return fail(count, s, err)
			}
			out.Searches++
			out.Nodes += res.Expanded
			d.Action = res.Action
			res.Root = nil
			d.Search = &res
		}
		if p.OnDecision != nil {
			p.OnDecision(d)
		}

		next, won, err := s.Apply(d.Action, rng)
		if err != nil {
			return fail(count, s, err)
		}
		out.Steps++
		if won {
			out.Result = ResultWin
			out.Life = b.Life
			out.Phase = b.Slow.Phase
			out.Elapsed += time.Since(start)
			return out, nil
		}
		s = next
		hist.Push(s)
	}
}
