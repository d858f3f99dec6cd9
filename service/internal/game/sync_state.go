// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jgwest/fridai/engine"
)

// CardView is a card as shown to a client.
type CardView struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	FightingValue int    `json:"fightingValue"`
	Ability       string `json:"ability,omitempty"`
	Used          bool   `json:"used,omitempty"`
	Doubled       bool   `json:"doubled,omitempty"`
	// Hazard side, for hazard cards.
	HazardTitle  string `json:"hazardTitle,omitempty"`
	HazardValues []int  `json:"hazardValues,omitempty"`
	FreeCards    int    `json:"freeCards,omitempty"`
}

// PirateView is a pirate card as shown to a client.
type PirateView struct {
	ID          int    `json:"id"`
	FreeCards   int    `json:"freeCards"`
	HazardValue int    `json:"hazardValue"` // PirateComputed when derived from the game
	Ability     string `json:"ability"`
}

// StateView is the visible state of a game. The order of the draw stacks
// is hidden; only their sizes are shown.
type StateView struct {
	GameID    uuid.UUID `json:"gameId"`
	Seed      uint64    `json:"seed"`
	Step      string    `json:"step"`
	StepCount int       `json:"stepCount"`
	Life      int       `json:"life"`
	Phase     int       `json:"phase"` // 2 green, 1 yellow, 0 red, -1 pirates
	Level     int       `json:"level"`
	GameOver  bool      `json:"gameOver"`
	Won       bool      `json:"won,omitempty"`

	FightingStack int          `json:"fightingStack"`
	AgingLeft     int          `json:"agingLeft"`
	Discard       []CardView   `json:"discard"`
	LHS           []CardView   `json:"lhs"`
	RHS           []CardView   `json:"rhs"`
	Ability       *AbilityView `json:"ability,omitempty"`

	// Hazard rounds.
	HazardStack   int        `json:"hazardStack,omitempty"`
	HazardDiscard int        `json:"hazardDiscard,omitempty"`
	ActiveHazard  *CardView  `json:"activeHazard,omitempty"`
	Offered       []CardView `json:"offered,omitempty"` // hazards to choose from

	// Pirate combat.
	ActivePirate *PirateView  `json:"activePirate,omitempty"`
	PirateHazard int          `json:"pirateHazard,omitempty"`
	PirateFree   int          `json:"pirateFree,omitempty"`
	Pirates      []PirateView `json:"pirates,omitempty"` // not yet beaten

	FightStrength int `json:"fightStrength"`
	Remaining     int `json:"remaining"` // hazard points not covered; > 0 costs life
}

func cardView(c *engine.Card, b *engine.Board) CardView {
	v := CardView{
		ID:            c.PhysicalID,
		Title:         c.Title,
		FightingValue: c.FightingValue,
	}
	if c.Ability != engine.AbilityNone {
		v.Ability = c.Ability.String()
	}
	if b != nil {
		v.Used = b.IsUsed(c)
		v.Doubled = b.IsDoubled(c)
	}
	if c.Type == engine.CardHazard {
		v.HazardTitle = c.HazardTitle
		v.HazardValues = append([]int(nil), c.HazardValues[:]...)
		v.FreeCards = c.FreeCards
	}
	return v
}

func pileView(p engine.Pile, b *engine.Board) []CardView {
	out := make([]CardView, p.Len())
	for i := range out {
		out[i] = cardView(p.At(i), b)
	}
	return out
}

func pirateView(p *engine.PirateCard) PirateView {
	return PirateView{ID: p.ID, FreeCards: p.FreeCards, HazardValue: p.HazardValue, Ability: p.Ability.String()}
}

// view builds the StateView of the current state.
// Assumes lock is held by caller.
func (g *FridayGame) view() StateView {
	b := g.State.Common()
	v := StateView{
		GameID:        g.ID,
		Seed:          g.Seed,
		Step:          b.Step.String(),
		StepCount:     g.Steps,
		Life:          b.Life,
		Phase:         b.Slow.Phase,
		Level:         b.Slow.Level,
		GameOver:      g.GameOver,
		Won:           g.Won,
		FightingStack: b.Fighting.Len(),
		AgingLeft:     b.Slow.Aging.Len(),
		Discard:       pileView(b.Discard, b),
		LHS:           pileView(b.LHS, b),
		RHS:           pileView(b.RHS, b),
		Ability:       abilityView(b.Ability),
		Remaining:     g.State.RemainingHazard(),
	}
	if g.GameOver {
		v.Life, v.Phase = g.Life, g.Phase
	}

	switch s := g.State.(type) {
	case *engine.GameState:
		v.HazardStack = s.Hazards.Len()
		v.HazardDiscard = s.HazardDiscard.Len()
		if s.ActiveHazard != nil {
			h := cardView(s.ActiveHazard, nil)
			v.ActiveHazard = &h
			v.FightStrength = s.ActiveHazard.HazardValues[s.EffectivePhase()] - v.Remaining
		} else if b.Step == engine.StepSelectHazard {
			for i := 0; i < 2 && i < s.Hazards.Len(); i++ {
				v.Offered = append(v.Offered, cardView(s.Hazards.At(i), nil))
			}
		}
	case *engine.PirateGameState:
		if s.ActivePirate != nil {
			pv := pirateView(s.ActivePirate)
			v.ActivePirate = &pv
		}
		if s.PirateInfo != nil {
			v.PirateHazard = s.PirateInfo.HazardPoints
			v.PirateFree = s.PirateInfo.FreeCards
			v.FightStrength = s.PirateInfo.HazardPoints - v.Remaining
		}
		for _, p := range b.Slow.Pirates {
			v.Pirates = append(v.Pirates, pirateView(p))
		}
	}
	return v
}
