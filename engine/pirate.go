package engine

import (
	"fmt"
	"strings"
)

// PirateGameState is a state of the final combat. The player picks the
// remaining pirates one at a time and must beat each; there is no paying
// life to give up a pirate fight.
type PirateGameState struct {
	Board
	ActivePirate *PirateCard
	PirateInfo   *PirateInfo // hazard points and free cards of the active pirate
}

// TransferToPirates converts a hazard state whose hazard deck is spent into
// the first state of the pirate combat. Life, the fighting cards and the
// slow state carry over. If a wildcard pirate is in play, its values are
// computed now from the hazard cards left in the stack.
func TransferToPirates(g *GameState) (*PirateGameState, error) {
	if g.LHS.Len() > 0 || g.RHS.Len() > 0 {
		return nil, fmt.Errorf("transfer to pirates with committed cards: %w", ErrInvalidPhase)
	}
	if g.Ability != nil {
		return nil, fmt.Errorf("transfer to pirates with ability in progress: %w", ErrInvalidPhase)
	}

	slow := g.Slow
	for _, pc := range g.Slow.Pirates {
		if pc.Ability != PirateFightRemainingHazards {
			continue
		}
		if g.ActiveHazard != nil {
			return nil, fmt.Errorf("wildcard pirate with active hazard %s: %w", g.ActiveHazard, ErrInvalidPhase)
		}
		if g.HazardDiscard.Len() > 0 {
			return nil, fmt.Errorf("wildcard pirate with %d discarded hazards: %w", g.HazardDiscard.Len(), ErrInvalidPhase)
		}
		info := &PirateInfo{}
		for _, c := range g.Hazards.cards {
			info.HazardPoints += c.HazardValues[0]
			info.FreeCards += c.FreeCards
		}
		slow = slow.with(func(ns *SlowState) { ns.Wildcard = info })
		break
	}

	p := &PirateGameState{Board: g.Board}
	p.Step = StepSelectPirate
	p.Slow = slow
	p.Used, p.Doubled = 0, 0
	return p, nil
}

// Common implements State.
func (p *PirateGameState) Common() *Board { return &p.Board }

func (p *PirateGameState) requireStep(s Step, op string) error {
	if p.Step != s {
		return fmt.Errorf("%s in pirate %s: %w", op, p.Step, ErrInvalidPhase)
	}
	return nil
}

// SelectPirate starts the fight against pc, removing it from the pirates
// still to beat.
func (p *PirateGameState) SelectPirate(pc *PirateCard) (*PirateGameState, error) {
	if err := p.requireStep(StepSelectPirate, "select pirate"); err != nil {
		return nil, err
	}
	if pc == nil {
		return nil, fmt.Errorf("select pirate: %w", ErrNilCard)
	}
	remaining := make([]*PirateCard, 0, len(p.Slow.Pirates))
	found := false
	for _, x := range p.Slow.Pirates {
		if x.ID == pc.ID {
			found = true
			continue
		}
		remaining = append(remaining, x)
	}
	if !found {
		return nil, fmt.Errorf("select pirate %s: %w", pc, ErrCardNotFound)
	}

	var info PirateInfo
	switch pc.Ability {
	case PirateFightRemainingHazards:
		if p.Slow.Wildcard == nil {
			return nil, fmt.Errorf("select wildcard pirate %s: no wildcard values: %w", pc, ErrNilCard)
		}
		info = *p.Slow.Wildcard
	case PirateTwoPointsPerAgingCard:
		total := 10
		if p.Slow.Level >= 3 {
			total = 11
		}
		info = PirateInfo{HazardPoints: (total - p.Slow.Aging.Len()) * 2, FreeCards: pc.FreeCards}
	default:
		info = PirateInfo{HazardPoints: pc.HazardValue, FreeCards: pc.FreeCards}
	}

	np := *p
	np.Slow = p.Slow.with(func(ns *SlowState) { ns.Pirates = remaining })
	np.ActivePirate = pc
	np.PirateInfo = &info
	np.Step = StepDrawFree
	return &np, nil
}

// DrawFree draws one of the pirate's free cards to the left side.
func (p *PirateGameState) DrawFree(rng *Rand) (*PirateGameState, error) {
	if err := p.requireStep(StepDrawFree, "draw free card"); err != nil {
		return nil, err
	}
	np := *p
	if err := np.drawFree(rng, p.PirateInfo.FreeCards); err != nil {
		return nil, err
	}
	return &np, nil
}

// EndDrawFree stops drawing free cards.
func (p *PirateGameState) EndDrawFree() (*PirateGameState, error) {
	if err := p.requireStep(StepDrawFree, "end draw free cards"); err != nil {
		return nil, err
	}
	np := *p
	np.Step = StepSacrifice
	return &np, nil
}

// SacrificeDraw draws a card to the right side for one life, or two
// against a pirate that charges double.
func (p *PirateGameState) SacrificeDraw(rng *Rand) (*PirateGameState, error) {
	if err := p.requireStep(StepSacrifice, "sacrifice life to draw"); err != nil {
		return nil, err
	}
	cost := 1
	if p.ActivePirate.Ability == PirateExtraCardCostsTwo {
		cost = 2
	}
	np := *p
	if err := np.sacrificeDraw(rng, cost); err != nil {
		return nil, err
	}
	return &np, nil
}

// EndPirateRound finishes a beaten pirate. It returns nil when no pirate is
// left: the game is won.
func (p *PirateGameState) EndPirateRound() (*PirateGameState, error) {
	if err := p.requireStep(StepSacrifice, "end pirate round"); err != nil {
		return nil, err
	}
	if len(p.Slow.Pirates) == 0 {
		return nil, nil
	}
	np := *p
	np.Discard = p.Discard.AddPile(p.LHS).AddPile(p.RHS)
	np.resetSides()
	np.Used, np.Doubled = 0, 0
	np.ActivePirate = nil
	np.PirateInfo = nil
	np.Step = StepSelectPirate
	return &np, nil
}

func (p *PirateGameState) UseAbility(c *Card, copied bool, rng *Rand) (*PirateGameState, error) {
	if err := p.requireStep(StepSacrifice, "use ability"); err != nil {
		return nil, err
	}
	np := *p
	if err := np.useAbility(c, copied, rng, true); err != nil {
		return nil, err
	}
	return &np, nil
}

func (p *PirateGameState) UseAbilityTarget(c, target *Card, copied bool, rng *Rand) (*PirateGameState, error) {
	if err := p.requireStep(StepSacrifice, "use ability on target"); err != nil {
		return nil, err
	}
	np := *p
	if err := np.useAbilityTarget(c, target, copied, rng); err != nil {
		return nil, err
	}
	return &np, nil
}

func (p *PirateGameState) SortCards(order []*Card, discard *Card) (*PirateGameState, error) {
	if err := p.requireStep(StepSacrifice, "sort cards"); err != nil {
		return nil, err
	}
	np := *p
	if err := np.sortCards(order, discard); err != nil {
		return nil, err
	}
	return &np, nil
}

func (p *PirateGameState) EndMultistage() (*PirateGameState, error) {
	if err := p.requireStep(StepSacrifice, "end multistage ability"); err != nil {
		return nil, err
	}
	np := *p
	if err := np.endMultistage(); err != nil {
		return nil, err
	}
	return &np, nil
}

func (p *PirateGameState) FlagCopyUsed(c *Card) *PirateGameState {
	np := *p
	np.Used = np.Used.With(c)
	return &np
}

// Verify checks that no physical card is held in two places and that the
// active pirate is consistent with the step. Hazard cards are out of play
// in pirate combat.
func (p *PirateGameState) Verify() error {
	seen := make(map[*Card]string, MaxCards)
	var dup error
	p.boardCards(func(where string, c *Card) {
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
	})
	if dup != nil {
		return dup
	}
	if (p.ActivePirate == nil) != (p.PirateInfo == nil) {
		return fmt.Errorf("active pirate %v with info %v: %w", p.ActivePirate, p.PirateInfo, ErrNilCard)
	}
	for _, pc := range p.Slow.Pirates {
		if p.ActivePirate != nil && pc.ID == p.ActivePirate.ID {
			return fmt.Errorf("active pirate %s still waiting: %w", pc, ErrDuplicateCard)
		}
	}

	switch p.Step {
	case StepSelectPirate:
		if p.ActivePirate != nil {
			return fmt.Errorf("select pirate with %s active: %w", p.ActivePirate, ErrInvalidPhase)
		}
		if p.LHS.Len() > 0 || p.RHS.Len() > 0 {
			return fmt.Errorf("select pirate with committed cards: %w", ErrInvalidPhase)
		}
	case StepDrawFree, StepSacrifice:
		if p.ActivePirate == nil {
			return fmt.Errorf("pirate %s without a pirate: %w", p.Step, ErrNilCard)
		}
	default:
		return fmt.Errorf("pirate combat in %s: %w", p.Step, ErrInvalidPhase)
	}
	return nil
}

// Equal implements State.
func (p *PirateGameState) Equal(o State) bool {
	op, ok := o.(*PirateGameState)
	if !ok {
		return false
	}
	if (p.PirateInfo == nil) != (op.PirateInfo == nil) || (p.PirateInfo != nil && *p.PirateInfo != *op.PirateInfo) {
		return false
	}
	return p.Board.equal(&op.Board) && p.ActivePirate == op.ActivePirate
}

func (p *PirateGameState) String() string {
	var sb strings.Builder
	p.describe(&sb)
	fmt.Fprintf(&sb, "pirates left: %d\n", len(p.Slow.Pirates))
	if p.ActivePirate != nil {
		fmt.Fprintf(&sb, "active pirate: %s  hazard points: %d  free cards: %d  remaining: %d\n",
			p.ActivePirate, p.PirateInfo.HazardPoints, p.PirateInfo.FreeCards, p.RemainingHazard())
	}
	return sb.String()
}
