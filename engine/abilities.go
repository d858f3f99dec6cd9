package engine

import "fmt"

// useAbility resolves an untargeted ability of c: +1/+2 cards, +1/+2 life,
// sort 3 cards, or phase -1 when copied. copied is true when the ability
// is being run through a copy card; a copied ability never marks c used.
func (b *Board) useAbility(c *Card, copied bool, rng *Rand, pirate bool) error {
	ao := b.Ability
	if !copied && (ao == nil || !ao.Copied) {
		b.Used = b.Used.With(c)
	}

	switch c.Ability {
	case AbilityDraw1:
		drawn, err := b.drawTop(rng)
		if err != nil {
			return fmt.Errorf("use %s: %w", c, err)
		}
		b.RHS = b.RHS.Add(drawn)

	case AbilityDraw2:
		drawn, err := b.drawTop(rng)
		if err != nil {
			return fmt.Errorf("use %s: %w", c, err)
		}
		b.RHS = b.RHS.Add(drawn)
		if ao != nil {
			b.Ability = nil // second card drawn
		} else {
			b.Ability = &AbilityObject{Card: c, Drawn: 1, Copied: copied}
		}

	case AbilityLifeAdd1, AbilityLifeAdd2:
		b.setLife(b.Life + c.Ability.Magnitude())

	case AbilitySort3:
		drawn, err := b.drawTop(rng)
		if err != nil {
			return fmt.Errorf("use %s: %w", c, err)
		}
		sorted := make([]*Card, 0, 3)
		if ao != nil {
			sorted = append(sorted, ao.SortCards...)
		}
		sorted = append(sorted, drawn)
		stage := 0
		if len(sorted) == 3 {
			stage = 1
		}
		b.Ability = &AbilityObject{
			Card:      c,
			Drawn:     len(sorted),
			Stage:     stage,
			SortCards: sorted,
			Copied:    copied || (ao != nil && ao.Copied),
		}

	case AbilityPhaseMinus1:
		if !copied {
			return fmt.Errorf("use %s: phase -1 is passive unless copied: %w", c, ErrInvalidPhase)
		}
		if pirate {
			return fmt.Errorf("use %s: %w", c, ErrPirateMode)
		}
		b.Slow = b.Slow.with(func(ns *SlowState) {
			if ns.RoundCards.Cap() == 0 {
				ns.RoundCards = NewPile(4)
			}
			ns.RoundCards = ns.RoundCards.Add(c)
		})

	default:
		return fmt.Errorf("use %s: ability needs a target or is not usable: %w", c, ErrInvalidPhase)
	}
	return nil
}

// useAbilityTarget resolves destroy, double, exchange and below-the-pile.
func (b *Board) useAbilityTarget(c, target *Card, copied bool, rng *Rand) error {
	if target == nil {
		return fmt.Errorf("use %s: target: %w", c, ErrNilCard)
	}

	switch c.Ability {
	case AbilityDestroy:
		if !copied {
			b.Used = b.Used.With(c)
		}
		if _, err := b.removeCommitted(target); err != nil {
			return fmt.Errorf("destroy: %w", err)
		}
		b.recordDestroyed(target)

	case AbilityDouble:
		if !copied {
			b.Used = b.Used.With(c)
		}
		if b.rules().Verify && b.Doubled.Has(target) {
			return fmt.Errorf("double %s: already doubled: %w", target, ErrInvalidPhase)
		}
		b.Doubled = b.Doubled.With(target)

	case AbilityExchange1, AbilityExchange2:
		if err := b.ensureFightStack(rng); err != nil {
			return fmt.Errorf("exchange: %w", err)
		}
		ao := b.Ability
		if !copied && (ao == nil || !ao.Copied) {
			b.Used = b.Used.With(c)
		}
		// a discarded card may come back after a reshuffle
		b.Used = b.Used.Without(target)

		replacement := b.Fighting.Top()
		var err error
		if b.Fighting, err = b.Fighting.RemoveFromFront(1); err != nil {
			return fmt.Errorf("exchange: %w", err)
		}
		onLeft, err := b.removeCommitted(target)
		if err != nil {
			return fmt.Errorf("exchange: %w", err)
		}
		if onLeft {
			b.LHS = b.LHS.Add(replacement)
		} else {
			b.RHS = b.RHS.Add(replacement)
		}
		b.Discard = b.Discard.Add(target)

		if c.Ability == AbilityExchange2 {
			if ao == nil {
				b.Ability = &AbilityObject{Card: c, Drawn: 1, Copied: copied}
			} else {
				b.Ability = nil
			}
		}

	case AbilityBelowThePile:
		onLeft := b.LHS.Contains(target)
		if onLeft && b.Fighting.Len() == 0 {
			if err := b.ensureFightStack(rng); err != nil {
				return fmt.Errorf("below the pile: %w", err)
			}
		}
		if !copied {
			b.Used = b.Used.With(c)
		}
		b.Used = b.Used.Without(target)

		switch {
		case onLeft:
			b.Fighting = b.Fighting.AddToBottom(target)
			replacement := b.Fighting.Top()
			var err error
			if b.Fighting, err = b.Fighting.RemoveFromFront(1); err != nil {
				return fmt.Errorf("below the pile: %w", err)
			}
			b.LHS, _ = b.LHS.Remove(target)
			b.LHS = b.LHS.Add(replacement)
		case b.RHS.Contains(target):
			b.RHS, _ = b.RHS.Remove(target)
			b.Fighting = b.Fighting.AddToBottom(target)
		default:
			return fmt.Errorf("below the pile: %s not on either side: %w", target, ErrCardNotFound)
		}

	default:
		return fmt.Errorf("use %s on %s: ability takes no target: %w", c, target, ErrInvalidPhase)
	}
	return nil
}

// sortCards finishes a sort: order goes on top of the draw stack (order[0]
// first) and discard, if any, goes to the discard pile.
func (b *Board) sortCards(order []*Card, discard *Card) error {
	ao := b.Ability
	if ao == nil || ao.Card.Ability != AbilitySort3 {
		return fmt.Errorf("sort: no sort in progress: %w", ErrInvalidPhase)
	}
	n := len(order)
	if discard != nil {
		n++
	}
	if n != len(ao.SortCards) {
		return fmt.Errorf("sort: %d cards submitted, %d drawn: %w", n, len(ao.SortCards), ErrCardNotFound)
	}
	var seen CardMask
	for _, c := range order {
		if c == nil {
			return fmt.Errorf("sort: %w", ErrNilCard)
		}
		if !containsCard(ao.SortCards, c) {
			return fmt.Errorf("sort: %s was not drawn: %w", c, ErrCardNotFound)
		}
		if seen.Has(c) {
			return fmt.Errorf("sort: %s: %w", c, ErrDuplicateCard)
		}
		seen = seen.With(c)
	}
	if discard != nil {
		if !containsCard(ao.SortCards, discard) {
			return fmt.Errorf("sort: discard %s was not drawn: %w", discard, ErrCardNotFound)
		}
		if seen.Has(discard) {
			return fmt.Errorf("sort: discard %s also in order: %w", discard, ErrDuplicateCard)
		}
		b.Discard = b.Discard.Add(discard)
	}
	b.Fighting = b.Fighting.Prepend(order...)
	b.Ability = nil
	return nil
}

// endMultistage stops drawing for a sort (moving it to the ordering stage)
// or ends any other multi-step ability.
func (b *Board) endMultistage() error {
	ao := b.Ability
	if ao == nil {
		return fmt.Errorf("end multistage ability: none in progress: %w", ErrInvalidPhase)
	}
	if ao.Card.Ability == AbilitySort3 {
		next := *ao
		next.Stage++
		b.Ability = &next
		return nil
	}
	b.Ability = nil
	return nil
}

func containsCard(cards []*Card, c *Card) bool {
	for _, x := range cards {
		if x == c {
			return true
		}
	}
	return false
}
