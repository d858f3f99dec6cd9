package engine

import "sort"

// EffectivePhase returns the phase used to read the active hazard's value:
// the nominal phase raised by one for every phase -1 card on either side
// and every phase -1 copied this round, capped at 2.
func (g *GameState) EffectivePhase() int {
	n := 0
	for _, c := range g.LHS.cards {
		if c.Ability == AbilityPhaseMinus1 {
			n++
		}
	}
	for _, c := range g.RHS.cards {
		if c.Ability == AbilityPhaseMinus1 {
			n++
		}
	}
	n += g.Slow.RoundCards.Len()
	return min(2, g.Slow.Phase+n)
}

// RemainingHazard returns the active hazard's value at the effective phase
// less the fighting value of the committed cards.
func (g *GameState) RemainingHazard() int {
	if g.ActiveHazard == nil {
		return 0
	}
	remaining, highestAddBack := g.committedValue(0)
	return remaining + g.ActiveHazard.HazardValues[g.EffectivePhase()] + highestAddBack
}

// committedValue returns minus the sum of committed fighting values (each
// card counting extra more), and the "highest card = 0" correction.
//
// The correction adds the highest raw fighting value back to the remaining
// hazard when a "highest card = 0" card is face up. It is the printed rule
// and is applied as written.
func (b *Board) committedValue(extra int) (remaining, highestAddBack int) {
	var highest *Card
	hasHighestIsZero := false
	for _, side := range [2]Pile{b.LHS, b.RHS} {
		for _, c := range side.cards {
			if c.Ability == AbilityHighestCardIsZero {
				hasHighestIsZero = true
			}
			if highest == nil || c.FightingValue > highest.FightingValue {
				highest = c
			}
			remaining -= b.value(c) + extra
		}
	}
	if hasHighestIsZero && highest != nil && highest.FightingValue > 0 {
		highestAddBack = highest.FightingValue
	}
	return remaining, highestAddBack
}

// RemainingHazard returns the active pirate's hazard points less the
// fighting value of the committed cards, under the pirate's rule.
func (p *PirateGameState) RemainingHazard() int {
	if p.ActivePirate == nil || p.PirateInfo == nil {
		return 0
	}
	switch p.ActivePirate.Ability {
	case PirateHalfCardsCount:
		return p.remainingHalf()
	case PirateCardsCountPlusOne:
		remaining, add := p.committedValue(1)
		return remaining + p.PirateInfo.HazardPoints + add
	default:
		remaining, add := p.committedValue(0)
		return remaining + p.PirateInfo.HazardPoints + add
	}
}

// remainingHalf scores only half the face-up cards, rounded up. Aging cards
// must be among the counted half; when there are more aging cards than
// slots, the most negative ones are dropped first. Remaining slots are
// filled with the best other cards.
func (p *PirateGameState) remainingHalf() int {
	var counted, others []*Card
	hasHighestIsZero := false
	for _, c := range p.committed() {
		if c.Type == CardAging {
			counted = append(counted, c)
			if c.Ability == AbilityHighestCardIsZero {
				hasHighestIsZero = true
			}
		} else {
			others = append(others, c)
		}
	}
	byValue := func(cards []*Card) {
		sort.SliceStable(cards, func(i, j int) bool { return p.value(cards[i]) < p.value(cards[j]) })
	}
	byValue(others)

	limit := (len(counted) + len(others) + 1) / 2
	addBack := 0
	if len(counted) >= limit {
		byValue(counted)
		counted = counted[len(counted)-limit:]
	} else {
		if hasHighestIsZero && len(others) > 0 {
			if v := p.value(others[len(others)-1]); v > 0 {
				addBack = v
			}
		}
		for len(counted) < limit {
			counted = append(counted, others[len(others)-1])
			others = others[:len(others)-1]
		}
	}

	remaining := 0
	for _, c := range counted {
		remaining -= p.value(c)
	}
	return remaining + addBack + p.PirateInfo.HazardPoints
}
