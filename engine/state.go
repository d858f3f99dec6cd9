package engine

import (
	"fmt"
	"strings"
)

// Step is the position of a state in its turn cycle.
type Step uint8

const (
	StepSelectHazard Step = iota // 0
	StepDrawFree                 // 1
	StepSacrifice                // 2
	StepPayLife                  // 3
	StepSelectPirate             // 4
)

var stepNames = [...]string{
	StepSelectHazard: "SELECT_A_HAZARD_CARD",
	StepDrawFree:     "DRAW_FREE_CARDS",
	StepSacrifice:    "SACRIFICE_LIFE_TO_DRAW",
	StepPayLife:      "PAY_LIFE_POINTS_ON_HAZARD_MISS",
	StepSelectPirate: "SELECT_A_PIRATE",
}

func (s Step) String() string {
	if int(s) < len(stepNames) {
		return stepNames[s]
	}
	return fmt.Sprintf("Step(%d)", uint8(s))
}

// ParseStep is the inverse of Step.String.
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", name)
}

// State is either a *GameState (hazard rounds) or a *PirateGameState (the
// final pirate combat). Implementations never modify the receiver.
type State interface {
	// Common returns the fields shared by both kinds of state.
	Common() *Board
	// Actions returns every legal action. An empty result is a loss.
	Actions() ([]Action, error)
	// Apply returns the state reached by taking a. won is true, and next is
	// nil, when the last pirate has been beaten.
	Apply(a Action, rng *Rand) (next State, won bool, err error)
	// RemainingHazard returns the hazard points not yet covered by the
	// committed cards. Positive values cost life.
	RemainingHazard() int
	// Verify checks the card invariants of the state.
	Verify() error
	// Equal reports whether two states hold the same cards in the same
	// places.
	Equal(o State) bool
	// Hash returns a hash of the contents compared by Equal.
	Hash() uint64
	String() string
}

// ---------------------------------------------------------------------------
// SlowState
// ---------------------------------------------------------------------------

// SlowState holds fields that change rarely. A state shares its SlowState
// with its predecessor until one of these fields changes; a SlowState is
// never modified after it is reachable from a state.
type SlowState struct {
	Aging      Deck
	Level      int
	Pirates    []*PirateCard // pirates not yet beaten
	RoundCards Pile          // phase -1 abilities copied this round
	Phase      int           // 2 green, 1 yellow, 0 red
	Wildcard   *PirateInfo   // set in pirate combat when a wildcard pirate is active
}

func (s *SlowState) with(fn func(ns *SlowState)) *SlowState {
	ns := *s
	fn(&ns)
	return &ns
}

// Equal reports whether two slow states hold the same contents.
func (s *SlowState) Equal(o *SlowState) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	if s.Level != o.Level || s.Phase != o.Phase {
		return false
	}
	if !sameCards(s.RoundCards.cards, o.RoundCards.cards) || !sameCards(s.Aging.cards, o.Aging.cards) {
		return false
	}
	if (s.Wildcard == nil) != (o.Wildcard == nil) || (s.Wildcard != nil && *s.Wildcard != *o.Wildcard) {
		return false
	}
	if len(s.Pirates) != len(o.Pirates) {
		return false
	}
	for i := range s.Pirates {
		if s.Pirates[i] != o.Pirates[i] {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// AbilityObject
// ---------------------------------------------------------------------------

// AbilityObject tracks a multi-step ability (+2 cards, 2x exchange, sort 3
// cards) across player decisions. It is replaced, never modified.
type AbilityObject struct {
	Card      *Card   // the card whose ability is in progress
	Drawn     int     // cards drawn or exchanged so far
	Stage     int     // sort only: 0 drawing, 1 ordering
	SortCards []*Card // sort only: cards drawn, in draw order
	Copied    bool    // started through a copy ability
}

// Equal reports whether two ability objects hold the same contents.
func (ao *AbilityObject) Equal(o *AbilityObject) bool {
	if ao == nil || o == nil {
		return ao == o
	}
	return ao.Card == o.Card && ao.Drawn == o.Drawn && ao.Stage == o.Stage &&
		ao.Copied == o.Copied && sameCards(ao.SortCards, o.SortCards)
}

func (ao *AbilityObject) String() string {
	if ao == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s drawn:%d stage:%d sort:%v copied:%t", ao.Card, ao.Drawn, ao.Stage, ao.SortCards, ao.Copied)
}

// ---------------------------------------------------------------------------
// Board: fields shared by GameState and PirateGameState
// ---------------------------------------------------------------------------

// Board holds the fighting side of a state: life, the player's draw stack,
// the fighting discard and the two committed piles of the current fight.
type Board struct {
	Env       *Env
	Step      Step
	Life      int
	Fighting  Deck // the player's draw stack, top first
	Discard   Pile // fighting discard
	LHS       Pile // cards drawn for free
	RHS       Pile // cards drawn for life or by abilities
	Used      CardMask
	Doubled   CardMask
	Ability   *AbilityObject
	Slow      *SlowState
	Destroyed Pile // destroyed cards, tracked only when Rules.Verify is set
}

func (b *Board) rules() *Rules { return &b.Env.Rules }

// CanDraw reports whether x cards can be drawn, counting a reshuffle of the
// discard.
func (b *Board) CanDraw(x int) bool {
	return b.Fighting.Len()+b.Discard.Len() >= x
}

// IsUsed reports whether c's ability has been used this fight.
func (b *Board) IsUsed(c *Card) bool { return b.Used.Has(c) }

// IsDoubled reports whether c's fighting value is doubled.
func (b *Board) IsDoubled(c *Card) bool { return b.Doubled.Has(c) }

// value returns c's fighting value, doubled when flagged.
func (b *Board) value(c *Card) int {
	if b.Doubled.Has(c) {
		return 2 * c.FightingValue
	}
	return c.FightingValue
}

// stopOnLHS reports whether a stop card blocks free draws.
func (b *Board) stopOnLHS() bool {
	return b.LHS.ContainsAbility(AbilityStop) != nil
}

func (b *Board) newSide() Pile { return NewPile(b.rules().SidePileCap) }

func (b *Board) setLife(life int) { b.Life = b.rules().clampLife(life) }

// ensureFightStack reshuffles the discard plus the top aging card into a new
// draw stack when the stack is empty. With no aging card left the game is
// lost.
func (b *Board) ensureFightStack(rng *Rand) error {
	if b.Fighting.Len() > 0 {
		return nil
	}
	if b.Discard.Len() == 0 {
		return fmt.Errorf("reshuffle fighting cards: discard is empty: %w", ErrEmptyStack)
	}
	cards := b.Discard.Cards()
	if top := b.Slow.Aging.Top(); top != nil {
		cards = append(cards, top)
		b.Slow = b.Slow.with(func(ns *SlowState) {
			ns.Aging, _ = ns.Aging.RemoveFromFront(1)
		})
	} else {
		b.setLife(-999)
	}
	rng.ShuffleCards(cards)
	b.Fighting = DeckOf(cards...)
	b.Discard = NewPile(b.rules().FightDiscardCap)
	return nil
}

// drawTop removes and returns the top of the draw stack, reshuffling first
// if needed.
func (b *Board) drawTop(rng *Rand) (*Card, error) {
	if err := b.ensureFightStack(rng); err != nil {
		return nil, err
	}
	c := b.Fighting.Top()
	var err error
	b.Fighting, err = b.Fighting.RemoveFromFront(1)
	return c, err
}

// drawFree moves the top card to the left pile and ends the free draws when
// the quota is reached or nothing is left to draw.
func (b *Board) drawFree(rng *Rand, freeCards int) error {
	c, err := b.drawTop(rng)
	if err != nil {
		return fmt.Errorf("draw free card: %w", err)
	}
	b.LHS = b.LHS.Add(c)
	if b.LHS.Len() == freeCards || (b.Fighting.Len() == 0 && b.Discard.Len() == 0) {
		b.Step = StepSacrifice
	}
	return nil
}

// sacrificeDraw moves the top card to the right pile for cost life.
func (b *Board) sacrificeDraw(rng *Rand, cost int) error {
	c, err := b.drawTop(rng)
	if err != nil {
		return fmt.Errorf("sacrifice draw: %w", err)
	}
	b.RHS = b.RHS.Add(c)
	b.setLife(b.Life - cost)
	return nil
}

// resetSides clears both committed piles.
func (b *Board) resetSides() {
	b.LHS = b.newSide()
	b.RHS = b.newSide()
}

// committed returns the left pile followed by the right pile.
func (b *Board) committed() []*Card {
	out := make([]*Card, 0, b.LHS.Len()+b.RHS.Len())
	out = append(out, b.LHS.cards...)
	return append(out, b.RHS.cards...)
}

// removeCommitted removes c from the left pile, else from the right pile.
// onLeft reports where it was found.
func (b *Board) removeCommitted(c *Card) (onLeft bool, err error) {
	if p, ok := b.LHS.Remove(c); ok {
		b.LHS = p
		return true, nil
	}
	if p, ok := b.RHS.Remove(c); ok {
		b.RHS = p
		return false, nil
	}
	return false, fmt.Errorf("%s not on either side: %w", c, ErrCardNotFound)
}

func (b *Board) recordDestroyed(cards ...*Card) {
	if b.rules().Verify {
		b.Destroyed = b.Destroyed.AddAll(cards...)
	}
}

// boardCards lists every card held by the board, labelled by location.
func (b *Board) boardCards(add func(where string, c *Card)) {
	for _, c := range b.Fighting.cards {
		add("fighting", c)
	}
	for _, c := range b.Discard.cards {
		add("discard", c)
	}
	for _, c := range b.LHS.cards {
		add("lhs", c)
	}
	for _, c := range b.RHS.cards {
		add("rhs", c)
	}
	if b.Ability != nil {
		for _, c := range b.Ability.SortCards {
			add("sort", c)
		}
	}
	for _, c := range b.Slow.Aging.cards {
		add("aging", c)
	}
	for _, c := range b.Destroyed.cards {
		add("destroyed", c)
	}
}

// equal compares the board contents of two states.
func (b *Board) equal(o *Board) bool {
	return b.Step == o.Step &&
		b.Life == o.Life &&
		b.Used == o.Used &&
		b.Doubled == o.Doubled &&
		sameCards(b.Fighting.cards, o.Fighting.cards) &&
		sameCards(b.Discard.cards, o.Discard.cards) &&
		sameCards(b.LHS.cards, o.LHS.cards) &&
		sameCards(b.RHS.cards, o.RHS.cards) &&
		b.Ability.Equal(o.Ability) &&
		b.Slow.Equal(o.Slow)
}

func (b *Board) describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "step: %s  life: %d  phase: %d  aging left: %d\n", b.Step, b.Life, b.Slow.Phase, b.Slow.Aging.Len())
	fmt.Fprintf(sb, "fighting stack: %d  discard: %d\n", b.Fighting.Len(), b.Discard.Len())
	writeSide(sb, "lhs", b.LHS, b)
	writeSide(sb, "rhs", b.RHS, b)
	if b.Ability != nil {
		fmt.Fprintf(sb, "ability: %s\n", b.Ability)
	}
}

func writeSide(sb *strings.Builder, name string, p Pile, b *Board) {
	sb.WriteString(name)
	sb.WriteString(":")
	for _, c := range p.cards {
		sb.WriteString(" [")
		sb.WriteString(c.String())
		if b.Used.Has(c) {
			sb.WriteString(" used")
		}
		if b.Doubled.Has(c) {
			sb.WriteString(" x2")
		}
		sb.WriteString("]")
	}
	sb.WriteString("\n")
}

func sameCards(a, b []*Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
