package engine

import (
	"fmt"
	"slices"
	"sort"
)

// Actions implements State. A state whose life is below zero has no
// actions: the game is lost.
func (g *GameState) Actions() ([]Action, error) {
	if g.Life < 0 {
		return nil, nil
	}

	switch g.Step {
	case StepSelectHazard:
		switch n := g.Hazards.Len(); {
		case n >= 2:
			return []Action{
				{Type: ActSelectFromTwo, Index: 0},
				{Type: ActSelectFromTwo, Index: 1},
			}, nil
		case n == 1:
			return []Action{
				{Type: ActFightOrDiscard, Fight: true},
				{Type: ActFightOrDiscard, Fight: false},
			}, nil
		}
		return nil, fmt.Errorf("select hazard: %w", ErrEmptyStack)

	case StepDrawFree:
		if g.ActiveHazard == nil {
			return nil, fmt.Errorf("draw free cards: active hazard: %w", ErrNilCard)
		}
		return g.freeDrawActions(g.ActiveHazard.FreeCards), nil

	case StepSacrifice:
		var out []Action
		if g.Ability == nil {
			if g.Life > 0 && g.CanDraw(1) {
				out = append(out, SacrificeDrawAction)
			}
			out = append(out, EndSacrificeAction)
		}
		return g.abilityActions(out, false)

	case StepPayLife:
		return g.payLifeActions(), nil
	}
	return nil, fmt.Errorf("actions in %s: %w", g.Step, ErrInvalidPhase)
}

// Actions implements State. Against a pirate the only way out of the
// sacrifice phase is to beat it: once the committed cards cover its hazard
// points, ending the round is the only action.
func (p *PirateGameState) Actions() ([]Action, error) {
	if p.Life < 0 {
		return nil, nil
	}

	switch p.Step {
	case StepSelectPirate:
		out := make([]Action, 0, len(p.Slow.Pirates))
		for _, pc := range p.Slow.Pirates {
			out = append(out, Action{Type: ActSelectPirate, Pirate: pc})
		}
		return out, nil

	case StepDrawFree:
		if p.PirateInfo == nil {
			return nil, fmt.Errorf("draw free cards: pirate info: %w", ErrNilCard)
		}
		return p.freeDrawActions(p.PirateInfo.FreeCards), nil

	case StepSacrifice:
		var out []Action
		if p.Ability == nil {
			if p.Life > 0 && p.CanDraw(1) {
				out = append(out, SacrificeDrawAction)
			}
			if p.RemainingHazard() <= 0 {
				return []Action{EndPirateRoundAction}, nil
			}
		}
		return p.abilityActions(out, true)
	}
	return nil, fmt.Errorf("pirate actions in %s: %w", p.Step, ErrInvalidPhase)
}

// freeDrawActions offers a free draw while the quota allows and no stop card
// is showing. At least one card must be drawn before the phase can end, so
// a player with no card left to draw has no action.
func (b *Board) freeDrawActions(freeCards int) []Action {
	var out []Action
	drawn := b.LHS.Len()
	if (drawn < freeCards || drawn == 0) && !b.stopOnLHS() && b.CanDraw(1) {
		out = append(out, DrawFreeAction)
	}
	if drawn > 0 {
		out = append(out, EndDrawFreeAction)
	}
	return out
}

// abilityActions appends the ability actions of the sacrifice phase: the
// next step of a multi-step ability if one is in progress, otherwise every
// usable ability on either side.
func (b *Board) abilityActions(out []Action, pirate bool) ([]Action, error) {
	ao := b.Ability
	if ao == nil {
		return append(out, b.individualActions(b.committed(), false, false, pirate)...), nil
	}

	c := ao.Card
	switch c.Ability {
	case AbilityDraw2:
		if b.CanDraw(1) {
			out = append(out, Action{Type: ActUseAbility, Card: c})
		}
		out = append(out, EndMultistageAction)

	case AbilityExchange2:
		if b.CanDraw(1) {
			for _, d := range b.committed() {
				if d != c {
					out = append(out, Action{Type: ActUseAbilityTarget, Card: c, Target: d})
				}
			}
		}
		out = append(out, EndMultistageAction)

	case AbilitySort3:
		switch {
		case ao.Stage == 0 && ao.Drawn <= 2:
			if b.CanDraw(1) {
				out = append(out, Action{Type: ActUseAbility, Card: c})
			}
			out = append(out, EndMultistageAction)
		case ao.Stage == 1:
			sorts, err := sortActions(ao.SortCards)
			if err != nil {
				return nil, err
			}
			out = append(out, sorts...)
		default:
			return nil, fmt.Errorf("sort at stage %d with %d drawn: %w", ao.Stage, ao.Drawn, ErrInvalidPhase)
		}

	default:
		return nil, fmt.Errorf("multistage ability %s: %w", c, ErrInvalidPhase)
	}
	return out, nil
}

// sortActions lists every way to put the drawn cards back, with and without
// discarding one of them.
func sortActions(cards []*Card) ([]Action, error) {
	sortAction := func(discard *Card, order ...*Card) Action {
		return Action{Type: ActSortCards, Order: order, Discard: discard}
	}
	switch len(cards) {
	case 1:
		return []Action{
			sortAction(nil, cards[0]),
			sortAction(cards[0]),
		}, nil
	case 2:
		return []Action{
			sortAction(nil, cards[0], cards[1]),
			sortAction(nil, cards[1], cards[0]),
			sortAction(cards[1], cards[0]),
			sortAction(cards[0], cards[1]),
		}, nil
	case 3:
		out := make([]Action, 0, 2*len(Permutations3))
		for _, perm := range Permutations3 {
			out = append(out,
				sortAction(nil, cards[perm[0]], cards[perm[1]], cards[perm[2]]),
				sortAction(cards[perm[2]], cards[perm[0]], cards[perm[1]]),
			)
		}
		return out, nil
	}
	return nil, fmt.Errorf("sort with %d drawn cards: %w", len(cards), ErrInvalidPhase)
}

// individualActions lists the abilities of cards that can be used right
// now. With ignoreUsed the used flags are not consulted; forCopy lists what
// a copy card could copy: phase -1 becomes usable (outside pirate combat)
// and copy cannot copy itself.
//
// Targeted abilities offer each target once per ability kind, even when
// several cards carry the ability.
func (b *Board) individualActions(cards []*Card, ignoreUsed, forCopy, pirate bool) []Action {
	var out []Action
	var destroyed, doubled, below, exchanged1, exchanged2 CardMask

	canDraw := b.CanDraw(1)

	for _, c := range cards {
		a := c.Ability
		if a == AbilityNone || a == AbilityDotDotDot || c.Difficulty != DifficultyNone {
			continue
		}
		if !ignoreUsed && b.IsUsed(c) {
			continue
		}

		switch a {
		case AbilityLifeAdd1, AbilityLifeAdd2:
			out = append(out, Action{Type: ActUseAbility, Card: c})

		case AbilityDraw1, AbilityDraw2, AbilitySort3:
			if canDraw {
				out = append(out, Action{Type: ActUseAbility, Card: c})
			}

		case AbilityPhaseMinus1:
			if forCopy && !pirate {
				out = append(out, Action{Type: ActUseAbility, Card: c})
			}

		case AbilityCopy:
			if !forCopy {
				for _, inner := range b.individualActions(cards, true, true, pirate) {
					out = append(out, CopyOf(c, inner))
				}
			}

		case AbilityDestroy:
			for _, d := range cards {
				if d == c || destroyed.Has(d) {
					continue
				}
				out = append(out, Action{Type: ActUseAbilityTarget, Card: c, Target: d})
				destroyed = destroyed.With(d)
			}

		case AbilityDouble:
			// only the highest card is worth doubling
			var best *Card
			for _, d := range cards {
				if d == c || b.IsDoubled(d) {
					continue
				}
				if best == nil || d.FightingValue > best.FightingValue {
					best = d
				}
			}
			if best != nil && best.FightingValue > 0 && !doubled.Has(best) {
				out = append(out, Action{Type: ActUseAbilityTarget, Card: c, Target: best})
				doubled = doubled.With(best)
			}

		case AbilityBelowThePile:
			// a left card needs a replacement from the draw stack
			for _, d := range cards {
				if d == c || below.Has(d) {
					continue
				}
				if canDraw || !b.LHS.Contains(d) {
					out = append(out, Action{Type: ActUseAbilityTarget, Card: c, Target: d})
				}
				below = below.With(d)
			}

		case AbilityExchange1, AbilityExchange2:
			if !canDraw {
				continue
			}
			seen := &exchanged1
			if a == AbilityExchange2 {
				seen = &exchanged2
			}
			for _, d := range cards {
				if d == c || seen.Has(d) {
					continue
				}
				out = append(out, Action{Type: ActUseAbilityTarget, Card: c, Target: d})
				*seen = seen.With(d)
			}
		}
	}
	return out
}

// payLifeActions lists the sets of committed cards that may be destroyed
// with the life just lost. Candidates are taken worst first while the life
// lasts (an aging card costs 2, any other card 1), at most comboCap of
// them; every subset is offered once per distinct multiset of trait ids.
func (g *GameState) payLifeActions() []Action {
	lifeLost := g.RemainingHazard()

	cands := g.committed()
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].RatingSimple() < cands[j].RatingSimple() })

	kept := cands[:0]
	budget := lifeLost
	for _, c := range cands {
		if budget <= 0 {
			break
		}
		cost := 1
		if c.Type == CardAging {
			cost = 2
		}
		if budget >= cost {
			budget -= cost
			kept = append(kept, c)
		}
	}
	if n := g.rules().comboCap(); len(kept) > n {
		kept = kept[:n]
	}

	if len(kept) == 0 {
		return []Action{{Type: ActDestroyWithLife, Destroy: []*Card{}}}
	}

	subsets := Combos(len(kept))
	out := make([]Action, 0, len(subsets))
	seen := make(map[string]bool, len(subsets))
	traits := make([]int, 0, len(kept))
	for _, idx := range subsets {
		traits = traits[:0]
		for _, i := range idx {
			traits = append(traits, kept[i].TraitID)
		}
		key := traitKey(traits)
		if seen[key] {
			continue
		}
		seen[key] = true

		destroy := make([]*Card, len(idx))
		for j, i := range idx {
			destroy[j] = kept[i]
		}
		out = append(out, Action{Type: ActDestroyWithLife, Destroy: destroy})
	}
	return out
}

// traitKey encodes a multiset of trait ids; traits is reordered.
func traitKey(traits []int) string {
	slices.Sort(traits)
	buf := make([]byte, 0, 2*len(traits))
	for _, t := range traits {
		buf = append(buf, byte(t>>8), byte(t))
	}
	return string(buf)
}
