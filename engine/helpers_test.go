package engine

import (
	"testing"
)

// deal hands out cards with fresh physical ids and builds the Env they are
// played with. Each card gets its own trait unless one is given.
type deal struct {
	t        *testing.T
	rules    Rules
	hazards  []*Card
	fighting []*Card
	aging    []*Card
	pirates  []*PirateCard
	next     int
	env      *Env
}

func newDeal(t *testing.T) *deal {
	t.Helper()
	r := DefaultRules()
	r.Verify = true
	return &deal{t: t, rules: r}
}

func (d *deal) card(c *Card) *Card {
	d.t.Helper()
	if d.env != nil {
		d.t.Fatalf("card dealt after Env was built")
	}
	c.PhysicalID = d.next
	if c.TraitID == 0 {
		c.TraitID = 1000 + d.next
	}
	d.next++
	return c
}

func (d *deal) fight(title string, fv int, a Ability) *Card {
	c := d.card(&Card{Type: CardFighting, Title: title, FightingValue: fv, Ability: a})
	d.fighting = append(d.fighting, c)
	return c
}

// twin deals a content duplicate of c.
func (d *deal) twin(c *Card) *Card {
	n := *c
	n.PhysicalID = 0
	out := d.card(&n)
	switch c.Type {
	case CardFighting:
		d.fighting = append(d.fighting, out)
	case CardAging:
		d.aging = append(d.aging, out)
	case CardHazard:
		d.hazards = append(d.hazards, out)
	}
	return out
}

func (d *deal) old(title string, fv int, a Ability) *Card {
	c := d.card(&Card{Type: CardAging, Title: title, FightingValue: fv, Ability: a, Difficulty: DifficultyNormal})
	d.aging = append(d.aging, c)
	return c
}

func (d *deal) hazard(title string, values [3]int, free int) *Card {
	c := d.card(&Card{Type: CardHazard, HazardTitle: title, HazardValues: values, FreeCards: free, Title: "weak"})
	d.hazards = append(d.hazards, c)
	return c
}

func (d *deal) pirate(free, hazard int, a PirateAbility) *PirateCard {
	pc := &PirateCard{ID: len(d.pirates), FreeCards: free, HazardValue: hazard, Ability: a}
	d.pirates = append(d.pirates, pc)
	return pc
}

// Env builds the catalog once; no card may be dealt afterwards.
func (d *deal) Env() *Env {
	d.t.Helper()
	if d.env == nil {
		cat, err := NewCatalog(d.hazards, d.fighting, d.aging, d.pirates)
		if err != nil {
			d.t.Fatalf("NewCatalog failed: %v", err)
		}
		d.env = NewEnv(cat, d.rules)
	}
	return d.env
}

// game returns an empty hazard-round state in step s.
func (d *deal) game(s Step, life int) *GameState {
	d.t.Helper()
	env := d.Env()
	r := &env.Rules
	return &GameState{
		Board: Board{
			Env:     env,
			Step:    s,
			Life:    life,
			Discard: NewPile(r.FightDiscardCap),
			LHS:     NewPile(r.SidePileCap),
			RHS:     NewPile(r.SidePileCap),
			Slow:    &SlowState{Level: r.Level, Phase: 2},
		},
		HazardDiscard: NewPile(r.HazardDiscardCap),
	}
}

// fightingGame returns a state in the sacrifice step against hazard h with
// the given cards on the left side.
func (d *deal) fightingGame(h *Card, life int, lhs ...*Card) *GameState {
	d.t.Helper()
	g := d.game(StepSacrifice, life)
	g.ActiveHazard = h
	g.LHS = PileOf(d.rules.SidePileCap, lhs...)
	return g
}

// pirateGame returns a pirate-combat state in step s with pc active (nil
// for the select step).
func (d *deal) pirateGame(s Step, life int, pc *PirateCard, info *PirateInfo) *PirateGameState {
	d.t.Helper()
	g := d.game(s, life)
	return &PirateGameState{Board: g.Board, ActivePirate: pc, PirateInfo: info}
}

func mustApply(t *testing.T, s State, a Action, rng *Rand) State {
	t.Helper()
	next, won, err := s.Apply(a, rng)
	if err != nil {
		t.Fatalf("Apply(%s) failed: %v", a, err)
	}
	if won {
		t.Fatalf("Apply(%s) won unexpectedly", a)
	}
	return next
}

func mustActions(t *testing.T, s State) []Action {
	t.Helper()
	acts, err := s.Actions()
	if err != nil {
		t.Fatalf("Actions failed: %v", err)
	}
	return acts
}

func hasAction(acts []Action, a Action) bool {
	for _, x := range acts {
		if x.Equal(a) {
			return true
		}
	}
	return false
}

func cardIDs(cards []*Card) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = c.PhysicalID
	}
	return out
}

// countCards returns the number of card placements held by a hazard-round
// state, duplicates included.
func countCards(g *GameState) int {
	n := 0
	g.boardCards(func(string, *Card) { n++ })
	n += g.Hazards.Len() + g.HazardDiscard.Len()
	if g.ActiveHazard != nil {
		n++
	}
	return n
}
