package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/jgwest/fridai/engine"
	"github.com/jgwest/fridai/engine/catalog"
)

// table builds small hand-made positions.
type table struct {
	t     *testing.T
	cards []*engine.Card
	env   *engine.Env
}

func newTable(t *testing.T) *table {
	t.Helper()
	return &table{t: t}
}

func (tb *table) add(c engine.Card) *engine.Card {
	c.PhysicalID = len(tb.cards)
	c.TraitID = len(tb.cards)
	p := &c
	tb.cards = append(tb.cards, p)
	return p
}

func (tb *table) fight(fv int, a engine.Ability) *engine.Card {
	return tb.add(engine.Card{Type: engine.CardFighting, Title: "f", FightingValue: fv, Ability: a})
}

func (tb *table) hazard(values [3]int, free int) *engine.Card {
	return tb.add(engine.Card{Type: engine.CardHazard, HazardTitle: "h", HazardValues: values, FreeCards: free})
}

func (tb *table) Env() *engine.Env {
	tb.t.Helper()
	if tb.env != nil {
		return tb.env
	}
	var hazards, fighting []*engine.Card
	for _, c := range tb.cards {
		if c.Type == engine.CardHazard {
			hazards = append(hazards, c)
		} else {
			fighting = append(fighting, c)
		}
	}
	cat, err := engine.NewCatalog(hazards, fighting, nil, nil)
	if err != nil {
		tb.t.Fatalf("NewCatalog failed: %v", err)
	}
	r := engine.DefaultRules()
	r.Verify = true
	tb.env = engine.NewEnv(cat, r)
	return tb.env
}

func (tb *table) sacrifice(h *engine.Card, life int, lhs ...*engine.Card) *engine.GameState {
	env := tb.Env()
	return &engine.GameState{
		Board: engine.Board{
			Env:     env,
			Step:    engine.StepSacrifice,
			Life:    life,
			Discard: engine.NewPile(8),
			LHS:     engine.PileOf(6, lhs...),
			RHS:     engine.NewPile(6),
			Slow:    &engine.SlowState{Level: 1, Phase: 2},
		},
		ActiveHazard:  h,
		HazardDiscard: engine.NewPile(4),
	}
}

func TestScore(t *testing.T) {
	tb := newTable(t)
	h := tb.hazard([3]int{3, 1, 0}, 1)
	a := tb.fight(2, engine.AbilityDestroy) // 5
	b := tb.fight(-1, engine.AbilityNone)   // -1
	c := tb.fight(0, engine.AbilityNone)    // 0
	g := tb.sacrifice(h, 7, a)
	g.RHS = engine.PileOf(6, b)
	g.Fighting = engine.DeckOf(c)

	want := 7*LifeWeight + QualityScale*4/3
	if got := Score(g); got != want {
		t.Errorf("Score = %d, want %d", got, want)
	}

	empty := tb.sacrifice(h, 3)
	if got := Score(empty); got != 3*LifeWeight {
		t.Errorf("Score with no cards = %d, want %d", got, 3*LifeWeight)
	}
}

// TestBackpropagate verifies that parents take the best child and leaves
// keep their own score.
func TestBackpropagate(t *testing.T) {
	root := &Node{}
	a := root.AddChild(engine.Action{Type: engine.ActDrawFree}, 5)
	b := root.AddChild(engine.Action{Type: engine.ActEndDrawFree}, 100)
	a1 := a.AddChild(engine.Action{}, 7)
	a2 := a.AddChild(engine.Action{}, 3)
	a21 := a2.AddChild(engine.Action{}, 50)

	Backpropagate(root)

	tests := []struct {
		name string
		n    *Node
		want int64
	}{
		{"leaf a1", a1, 7},
		{"leaf a21", a21, 50},
		{"a2 from its child", a2, 50},
		{"a max of children", a, 50},
		{"leaf b", b, 100},
		{"root", root, 100},
	}
	for _, tc := range tests {
		if tc.n.Final != tc.want {
			t.Errorf("%s: Final = %d, want %d", tc.name, tc.n.Final, tc.want)
		}
	}
}

func TestBackpropagateDeepChain(t *testing.T) {
	root := &Node{}
	n := root
	for i := range 100000 {
		n = n.AddChild(engine.Action{}, int64(i))
	}
	Backpropagate(root)
	if root.Final != 99999 {
		t.Errorf("root Final = %d, want 99999", root.Final)
	}
}

func TestFilterPayLife(t *testing.T) {
	tb := newTable(t)
	bad := tb.fight(-2, engine.AbilityNone)
	worse := tb.fight(-3, engine.AbilityNone)
	good := tb.fight(2, engine.AbilityNone)
	destroy := func(cs ...*engine.Card) engine.Action {
		return engine.Action{Type: engine.ActDestroyWithLife, Destroy: cs}
	}

	acts := []engine.Action{destroy(good, bad), destroy(bad), destroy(worse, bad), destroy()}
	got := filterPayLife(acts)
	if len(got) != 1 || !got[0].Equal(acts[2]) {
		t.Errorf("filterPayLife = %v, want only %v", got, acts[2])
	}

	acts = []engine.Action{destroy(good)}
	if got := filterPayLife(acts); len(got) != 1 {
		t.Errorf("filterPayLife dropped every action: %v", got)
	}
}

// TestSearchTakesTheWin verifies that a winning action is chosen over any
// heuristic score.
func TestSearchTakesTheWin(t *testing.T) {
	tb := newTable(t)
	weapon := tb.fight(4, engine.AbilityNone)
	eat := tb.fight(0, engine.AbilityLifeAdd2)
	pc := &engine.PirateCard{ID: 0, FreeCards: 1, HazardValue: 3}

	g := tb.sacrifice(nil, 5)
	p := &engine.PirateGameState{Board: g.Board, ActivePirate: pc, PirateInfo: &engine.PirateInfo{HazardPoints: 3, FreeCards: 1}}
	p.LHS = engine.PileOf(6, eat, weapon)

	s := Searcher{Budget: 50}
	res, err := s.Best(p, engine.NewRand(1))
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}
	if res.Action.Type != engine.ActEndPirateRound || res.Score != WinScore {
		t.Errorf("Best = %s score %d, want the winning end of round", res.Action, res.Score)
	}
}

// TestSearchPrefersLife verifies a one-step choice: gaining life beats
// ending the fight.
func TestSearchPrefersLife(t *testing.T) {
	tb := newTable(t)
	h := tb.hazard([3]int{0, 0, 0}, 1)
	next := tb.hazard([3]int{0, 0, 0}, 1)
	eat := tb.fight(0, engine.AbilityLifeAdd2)
	g := tb.sacrifice(h, 5, eat)
	g.Hazards = engine.DeckOf(next)

	s := Searcher{Budget: 0}
	res, err := s.Best(g, engine.NewRand(1))
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}
	if res.Action.Type != engine.ActUseAbility || res.Action.Card != eat {
		t.Errorf("Best = %s, want +2 life", res.Action)
	}
	if len(res.Root.Children) != 2 {
		t.Errorf("root children = %d, want 2", len(res.Root.Children))
	}
}

func TestSearchLostState(t *testing.T) {
	tb := newTable(t)
	h := tb.hazard([3]int{0, 0, 0}, 1)
	g := tb.sacrifice(h, -1)
	s := Searcher{Budget: 10}
	if _, err := s.Best(g, engine.NewRand(1)); !errors.Is(err, ErrNoActions) {
		t.Errorf("Best err = %v, want ErrNoActions", err)
	}
}

// TestSearchBudgetBound verifies that the search stops after expanding one
// node more than its budget.
func TestSearchBudgetBound(t *testing.T) {
	cat, err := catalog.Standard()
	if err != nil {
		t.Fatalf("Standard failed: %v", err)
	}
	rules := engine.DefaultRules()
	rules.Verify = true
	g, err := engine.NewGame(engine.NewEnv(cat, rules), engine.NewRand(7))
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}

	for _, budget := range []int{0, 5, 40} {
		s := Searcher{Budget: budget}
		res, err := s.Best(g, engine.NewRand(7))
		if err != nil {
			t.Fatalf("budget %d: Best failed: %v", budget, err)
		}
		if res.Expanded != budget+1 {
			t.Errorf("budget %d: expanded %d, want %d", budget, res.Expanded, budget+1)
		}
	}
}

// TestSearchLostChildKeepsScore verifies that a lost state popped from the
// frontier is not expanded, is not counted, and keeps its heuristic score.
func TestSearchLostChildKeepsScore(t *testing.T) {
	tb := newTable(t)
	h := tb.hazard([3]int{5, 5, 5}, 1)
	g := tb.sacrifice(h, 1)

	lost, _, err := g.Apply(engine.EndSacrificeAction, engine.NewRand(1))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if acts, err := lost.Actions(); err != nil || len(acts) != 0 {
		t.Fatalf("paying 5 life from 1 should lose, got %v %v", acts, err)
	}

	s := Searcher{Budget: 10}
	res, err := s.Best(g, engine.NewRand(1))
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}
	if res.Expanded != 0 {
		t.Errorf("expanded %d, want 0", res.Expanded)
	}
	if len(res.Root.Children) != 1 {
		t.Fatalf("root children = %d, want 1", len(res.Root.Children))
	}
	c := res.Root.Children[0]
	if len(c.Children) != 0 {
		t.Errorf("lost state was expanded into %d children", len(c.Children))
	}
	if want := Score(lost); c.Score != want || c.Final != want || res.Score != want {
		t.Errorf("scores %d/%d/%d, want heuristic %d", c.Score, c.Final, res.Score, want)
	}
}

// TestHistoryBreaksCycle verifies that a repeated sacrifice state only
// offers ending the fight.
func TestHistoryBreaksCycle(t *testing.T) {
	tb := newTable(t)
	h := tb.hazard([3]int{3, 1, 0}, 1)
	x := tb.fight(0, engine.AbilityExchange1)
	y := tb.fight(1, engine.AbilityNone)
	g := tb.sacrifice(h, 5, x)
	g.Fighting = engine.DeckOf(y)

	acts, err := g.Actions()
	if err != nil {
		t.Fatalf("Actions failed: %v", err)
	}
	hist := NewHistory(DefaultHistorySize)
	hist.Push(g)
	if got := hist.BreakCycle(g, acts); len(got) != len(acts) {
		t.Errorf("first visit narrowed actions to %v", got)
	}

	same := *g
	hist.Push(&same)
	got := hist.BreakCycle(&same, acts)
	if len(got) != 1 || got[0].Type != engine.ActEndSacrifice {
		t.Errorf("repeat visit actions = %v, want only end sacrifice", got)
	}

	for range DefaultHistorySize {
		other := *g
		other.Life = 1
		hist.Push(&other)
	}
	if hist.Len() != DefaultHistorySize || hist.Repeated(g) {
		t.Errorf("old states not evicted: len %d", hist.Len())
	}
}

// TestPlayDeterministic plays the standard card set with a small budget
// and checks that a seed always plays out the same way.
func TestPlayDeterministic(t *testing.T) {
	cat, err := catalog.Standard()
	if err != nil {
		t.Fatalf("Standard failed: %v", err)
	}
	rules := engine.DefaultRules()
	rules.Verify = true
	rules.NodeBudget = 200
	p := NewPlayer(engine.NewEnv(cat, rules))

	for seed := uint64(1); seed <= 3; seed++ {
		var decisions int
		p.OnDecision = func(Decision) { decisions++ }
		first, err := p.Play(context.Background(), seed)
		if err != nil {
			t.Fatalf("seed %d: Play failed: %v", seed, err)
		}
		p.OnDecision = nil
		second, err := p.Play(context.Background(), seed)
		if err != nil {
			t.Fatalf("seed %d: Play failed: %v", seed, err)
		}
		first.Elapsed, second.Elapsed = 0, 0
		if first != second {
			t.Errorf("seed %d: %+v then %+v", seed, first, second)
		}
		if decisions != first.Steps || first.Steps == 0 {
			t.Errorf("seed %d: %d decisions for %d steps", seed, decisions, first.Steps)
		}
		if first.Result == ResultWin && first.PhaseScore() != PhaseScoreWin {
			t.Errorf("seed %d: win with phase score %d", seed, first.PhaseScore())
		}
	}
}

func TestPlayCancelled(t *testing.T) {
	cat, err := catalog.Standard()
	if err != nil {
		t.Fatalf("Standard failed: %v", err)
	}
	p := NewPlayer(engine.NewEnv(cat, engine.DefaultRules()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Play(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Play err = %v, want context.Canceled", err)
	}
}

func TestReplayError(t *testing.T) {
	err := error(&ReplayError{Seed: 9, Count: 31, Err: engine.ErrDuplicateCard})
	var re *ReplayError
	if !errors.As(err, &re) || re.Count != 31 {
		t.Fatalf("errors.As failed on %v", err)
	}
	if !errors.Is(err, engine.ErrDuplicateCard) {
		t.Errorf("ReplayError does not unwrap")
	}
}
