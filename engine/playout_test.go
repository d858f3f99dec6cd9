package engine_test

import (
	"testing"

	"github.com/jgwest/fridai/engine"
	"github.com/jgwest/fridai/engine/catalog"
)

// placed counts the card placements of a hazard-round state.
func placed(g *engine.GameState) int {
	n := g.Fighting.Len() + g.Discard.Len() + g.LHS.Len() + g.RHS.Len() +
		g.Slow.Aging.Len() + g.Destroyed.Len() + g.Hazards.Len() + g.HazardDiscard.Len()
	if g.Ability != nil {
		n += len(g.Ability.SortCards)
	}
	if g.ActiveHazard != nil {
		n++
	}
	return n
}

// TestRandomPlayouts plays random legal actions with verification on and
// checks that every card of the game stays in exactly one place.
func TestRandomPlayouts(t *testing.T) {
	cat, err := catalog.Standard()
	if err != nil {
		t.Fatalf("Standard failed: %v", err)
	}
	rules := engine.DefaultRules()
	rules.Verify = true
	env := engine.NewEnv(cat, rules)

	// level 1 plays without the -3 aging card
	want := len(cat.Hazards) + len(cat.Fighting) + len(cat.Aging) - 1

	for seed := uint64(1); seed <= 40; seed++ {
		rng := engine.NewRand(seed)
		pick := engine.NewRand(seed + 1000)
		g, err := engine.NewGame(env, rng)
		if err != nil {
			t.Fatalf("seed %d: NewGame failed: %v", seed, err)
		}
		var s engine.State = g
		for step := 0; step < 5000; step++ {
			if hg, ok := s.(*engine.GameState); ok && placed(hg) != want {
				t.Fatalf("seed %d step %d: %d cards placed, want %d\n%s", seed, step, placed(hg), want, hg)
			}
			acts, err := s.Actions()
			if err != nil {
				t.Fatalf("seed %d step %d: Actions failed: %v\n%s", seed, step, err, s)
			}
			if len(acts) == 0 {
				break
			}
			a := acts[pick.IntN(len(acts))]
			next, won, err := s.Apply(a, rng)
			if err != nil {
				t.Fatalf("seed %d step %d: Apply(%s) failed: %v\n%s", seed, step, a, err, s)
			}
			if won {
				break
			}
			s = next
		}
	}
}

// TestReplayRand verifies that a source rebuilt from its seed and count
// continues the same sequence.
func TestReplayRand(t *testing.T) {
	r := engine.NewRand(42)
	for range 17 {
		r.IntN(100)
	}
	replay := engine.ReplayRand(r.Seed(), r.Count())
	for i := range 50 {
		if a, b := r.Uint64(), replay.Uint64(); a != b {
			t.Fatalf("value %d: %d != %d", i, a, b)
		}
	}
}
