// Package engine implements the rules of the solo card game Friday.
//
// States are immutable values: every transition copies the receiver,
// changes the copy and returns it. The card collections a state is built
// from share their backing arrays with the states they were derived from,
// so deriving many siblings from one parent (as the search in package
// agent does) is cheap.
package engine

import (
	"fmt"
	"strings"
)

// GameState is a state of the hazard rounds: the player fights hazard cards
// until the hazard deck has been worked through in all three phases.
type GameState struct {
	Board
	Hazards       Deck
	HazardDiscard Pile
	ActiveHazard  *Card
}

// NewGame deals a new game: shuffled fighting and hazard decks, the aging
// deck (normal cards shuffled above the difficult ones) and the pirates
// for the final fight.
func NewGame(env *Env, rng *Rand) (*GameState, error) {
	cat := env.Catalog
	r := &env.Rules

	fighting := append([]*Card(nil), cat.Fighting...)
	rng.ShuffleCards(fighting)

	hazards := append([]*Card(nil), cat.Hazards...)
	rng.ShuffleCards(hazards)

	var normal, difficult []*Card
	for _, c := range cat.Aging {
		switch {
		case c.Difficulty == DifficultyDifficult:
			difficult = append(difficult, c)
		case c.Difficulty == DifficultyNormal && (c.FightingValue != -3 || r.Level >= 3):
			normal = append(normal, c)
		}
	}
	rng.ShuffleCards(normal)
	rng.ShuffleCards(difficult)

	pirates := append([]*PirateCard(nil), cat.Pirates...)
	rng.Shuffle(len(pirates), func(i, j int) { pirates[i], pirates[j] = pirates[j], pirates[i] })
	if n := r.Pirates; n >= 0 && len(pirates) > n {
		pirates = pirates[len(pirates)-n:]
	}

	g := &GameState{
		Board: Board{
			Env:      env,
			Step:     StepSelectHazard,
			Fighting: DeckOf(fighting...),
			Discard:  NewPile(r.FightDiscardCap),
			LHS:      NewPile(r.SidePileCap),
			RHS:      NewPile(r.SidePileCap),
			Slow: &SlowState{
				Aging:   DeckOf(append(normal, difficult...)...),
				Level:   r.Level,
				Pirates: pirates,
				Phase:   r.StartPhase,
			},
		},
		Hazards:       DeckOf(hazards...),
		HazardDiscard: NewPile(r.HazardDiscardCap),
	}
	g.setLife(r.StartingLife)
	if r.Verify {
		if err := g.Verify(); err != nil {
			return nil, fmt.Errorf("new game: %w", err)
		}
	}
	return g, nil
}

// Common implements State.
func (g *GameState) Common() *Board { return &g.Board }

// ---------------------------------------------------------------------------
// Transitions
// ---------------------------------------------------------------------------

func (g *GameState) requireStep(s Step, op string) error {
	if g.Step != s {
		return fmt.Errorf("%s in %s: %w", op, g.Step, ErrInvalidPhase)
	}
	return nil
}

// SelectFromTwo fights hazards[i] of the top two hazards and discards the
// other.
func (g *GameState) SelectFromTwo(i int) (*GameState, error) {
	if err := g.requireStep(StepSelectHazard, "select from two hazards"); err != nil {
		return nil, err
	}
	if g.Hazards.Len() < 2 || (i != 0 && i != 1) {
		return nil, fmt.Errorf("select hazard %d of %d: %w", i, g.Hazards.Len(), ErrEmptyStack)
	}
	ng := *g
	ng.ActiveHazard = g.Hazards.At(i)
	ng.HazardDiscard = g.HazardDiscard.Add(g.Hazards.At(1 - i))
	ng.Hazards, _ = g.Hazards.RemoveFromFront(2)
	ng.Used, ng.Doubled = 0, 0
	ng.Step = StepDrawFree
	return &ng, nil
}

// FightOrDiscard handles the last hazard of the stack: fight it, or discard
// it, which reshuffles the hazard discard into the next phase.
func (g *GameState) FightOrDiscard(fight bool, rng *Rand) (State, error) {
	if err := g.requireStep(StepSelectHazard, "fight or discard hazard"); err != nil {
		return nil, err
	}
	top := g.Hazards.Top()
	if top == nil {
		return nil, fmt.Errorf("fight or discard hazard: %w", ErrEmptyStack)
	}
	ng := *g
	ng.Hazards, _ = g.Hazards.RemoveFromFront(1)
	if fight {
		ng.ActiveHazard = top
		ng.Used, ng.Doubled = 0, 0
		ng.Step = StepDrawFree
		return &ng, nil
	}
	ng.HazardDiscard = g.HazardDiscard.Add(top)
	return ng.ensureHazards(rng)
}

// DrawFree draws one of the active hazard's free cards to the left side.
func (g *GameState) DrawFree(rng *Rand) (*GameState, error) {
	if err := g.requireStep(StepDrawFree, "draw free card"); err != nil {
		return nil, err
	}
	ng := *g
	if err := ng.drawFree(rng, g.ActiveHazard.FreeCards); err != nil {
		return nil, err
	}
	return &ng, nil
}

// EndDrawFree stops drawing free cards.
func (g *GameState) EndDrawFree() (*GameState, error) {
	if err := g.requireStep(StepDrawFree, "end draw free cards"); err != nil {
		return nil, err
	}
	ng := *g
	ng.Step = StepSacrifice
	return &ng, nil
}

// SacrificeDraw draws a card to the right side for one life.
func (g *GameState) SacrificeDraw(rng *Rand) (*GameState, error) {
	if err := g.requireStep(StepSacrifice, "sacrifice life to draw"); err != nil {
		return nil, err
	}
	ng := *g
	if err := ng.sacrificeDraw(rng, 1); err != nil {
		return nil, err
	}
	return &ng, nil
}

// EndSacrifice resolves the fight. Aging cards with a life penalty cost
// their life. A beaten hazard joins the fighting discard with every
// committed card; otherwise the shortfall is paid in life and the player
// moves on to choosing cards to destroy.
func (g *GameState) EndSacrifice(rng *Rand) (State, error) {
	if err := g.requireStep(StepSacrifice, "end sacrifice"); err != nil {
		return nil, err
	}
	remaining := g.RemainingHazard()

	ng := *g
	if g.Slow.RoundCards.Len() > 0 {
		ng.Slow = g.Slow.with(func(ns *SlowState) { ns.RoundCards = Pile{} })
	}
	penalty := 0
	for _, c := range g.committed() {
		if c.Ability == AbilityLifeMinus1 || c.Ability == AbilityLifeMinus2 {
			penalty += c.Ability.Magnitude()
		}
	}
	ng.setLife(g.Life + penalty)

	if remaining > 0 {
		ng.setLife(ng.Life - remaining)
		ng.Step = StepPayLife
		return &ng, nil
	}

	ng.Discard = g.Discard.Add(g.ActiveHazard).AddPile(g.LHS).AddPile(g.RHS)
	ng.ActiveHazard = nil
	ng.resetSides()
	ng.Step = StepSelectHazard
	return ng.ensureHazards(rng)
}

// PayLife destroys the chosen committed cards (paid for with the life lost
// on the miss), discards the rest and the hazard, and starts a new round.
func (g *GameState) PayLife(destroy []*Card, rng *Rand) (State, error) {
	if err := g.requireStep(StepPayLife, "destroy cards with paid life"); err != nil {
		return nil, err
	}
	pending := make(map[*Card]bool, len(destroy))
	for _, c := range destroy {
		if c == nil {
			return nil, fmt.Errorf("destroy cards: %w", ErrNilCard)
		}
		if pending[c] {
			return nil, fmt.Errorf("destroy cards: %s listed twice: %w", c, ErrDuplicateCard)
		}
		pending[c] = true
	}

	ng := *g
	ng.HazardDiscard = g.HazardDiscard.Add(g.ActiveHazard)
	ng.ActiveHazard = nil
	discard := g.Discard
	for _, c := range g.committed() {
		if pending[c] {
			delete(pending, c)
			continue
		}
		discard = discard.Add(c)
	}
	for _, c := range destroy {
		if pending[c] {
			return nil, fmt.Errorf("destroy cards: %s not on either side: %w", c, ErrCardNotFound)
		}
	}
	ng.Discard = discard
	ng.recordDestroyed(destroy...)
	ng.resetSides()
	ng.Step = StepSelectHazard
	return ng.ensureHazards(rng)
}

// UseAbility, UseAbilityTarget, SortCards, EndMultistage and FlagCopyUsed
// run the shared ability rules on a copy of g.

func (g *GameState) UseAbility(c *Card, copied bool, rng *Rand) (*GameState, error) {
	if err := g.requireStep(StepSacrifice, "use ability"); err != nil {
		return nil, err
	}
	ng := *g
	if err := ng.useAbility(c, copied, rng, false); err != nil {
		return nil, err
	}
	return &ng, nil
}

func (g *GameState) UseAbilityTarget(c, target *Card, copied bool, rng *Rand) (*GameState, error) {
	if err := g.requireStep(StepSacrifice, "use ability on target"); err != nil {
		return nil, err
	}
	ng := *g
	if err := ng.useAbilityTarget(c, target, copied, rng); err != nil {
		return nil, err
	}
	return &ng, nil
}

func (g *GameState) SortCards(order []*Card, discard *Card) (*GameState, error) {
	if err := g.requireStep(StepSacrifice, "sort cards"); err != nil {
		return nil, err
	}
	ng := *g
	if err := ng.sortCards(order, discard); err != nil {
		return nil, err
	}
	return &ng, nil
}

func (g *GameState) EndMultistage() (*GameState, error) {
	if err := g.requireStep(StepSacrifice, "end multistage ability"); err != nil {
		return nil, err
	}
	ng := *g
	if err := ng.endMultistage(); err != nil {
		return nil, err
	}
	return &ng, nil
}

func (g *GameState) FlagCopyUsed(c *Card) *GameState {
	ng := *g
	ng.Used = ng.Used.With(c)
	return &ng
}

// ensureHazards refills an empty hazard stack from the hazard discard,
// moving to the next phase. Past the red phase the game moves on to the
// pirates.
func (g *GameState) ensureHazards(rng *Rand) (State, error) {
	if g.Hazards.Len() > 0 {
		return g, nil
	}
	ng := *g
	for ng.Hazards.Len() == 0 {
		cards := ng.HazardDiscard.Cards()
		rng.ShuffleCards(cards)
		ng.Hazards = DeckOf(cards...)
		ng.HazardDiscard = NewPile(len(cards)/2 + 1)
		phase := ng.Slow.Phase - 1
		ng.Slow = ng.Slow.with(func(ns *SlowState) { ns.Phase = phase })
		if phase < 0 {
			p, err := TransferToPirates(&ng)
			if err != nil {
				return nil, err
			}
			return p, nil
		}
	}
	return &ng, nil
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// Verify checks that no physical card is held in two places and that the
// state is consistent with its step.
func (g *GameState) Verify() error {
	seen := make(map[*Card]string, MaxCards)
	var dup error
	add := func(where string, c *Card) {
		if dup != nil {
			return
		}
		if c == nil {
			dup = fmt.Errorf("%s: %w", where, ErrNilCard)
			return
		}
		if prev, ok := seen[c]; ok {
			dup = fmt.Errorf("%s in %s and %s: %w", c, prev, where, ErrDuplicateCard)
			return
		}
		seen[c] = where
	}
	g.boardCards(add)
	for _, c := range g.Hazards.cards {
		add("hazards", c)
	}
	for _, c := range g.HazardDiscard.cards {
		add("hazard discard", c)
	}
	if g.ActiveHazard != nil {
		add("active hazard", g.ActiveHazard)
	}
	if dup != nil {
		return dup
	}

	switch g.Step {
	case StepSelectHazard:
		if g.LHS.Len() > 0 || g.RHS.Len() > 0 {
			return fmt.Errorf("select hazard with committed cards: %w", ErrInvalidPhase)
		}
		if g.Ability != nil {
			return fmt.Errorf("select hazard with ability in progress: %w", ErrInvalidPhase)
		}
	case StepDrawFree:
		if g.ActiveHazard == nil {
			return fmt.Errorf("draw free cards without a hazard: %w", ErrNilCard)
		}
	case StepSacrifice, StepPayLife:
		if g.ActiveHazard == nil {
			return fmt.Errorf("%s without a hazard: %w", g.Step, ErrNilCard)
		}
	default:
		return fmt.Errorf("hazard round in %s: %w", g.Step, ErrInvalidPhase)
	}
	return nil
}

// Equal implements State.
func (g *GameState) Equal(o State) bool {
	og, ok := o.(*GameState)
	if !ok {
		return false
	}
	return g.Board.equal(&og.Board) &&
		g.ActiveHazard == og.ActiveHazard &&
		sameCards(g.Hazards.cards, og.Hazards.cards) &&
		sameCards(g.HazardDiscard.cards, og.HazardDiscard.cards)
}

func (g *GameState) String() string {
	var sb strings.Builder
	g.describe(&sb)
	fmt.Fprintf(&sb, "hazards: %d  hazard discard: %d\n", g.Hazards.Len(), g.HazardDiscard.Len())
	if g.ActiveHazard != nil {
		fmt.Fprintf(&sb, "active hazard: %s  remaining: %d\n", g.ActiveHazard, g.RemainingHazard())
	}
	return sb.String()
}
