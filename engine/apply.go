package engine

import "fmt"

// Apply implements State. It dispatches a to the matching transition, then
// applies the stop rule and, with Rules.Verify, checks the result.
func (g *GameState) Apply(a Action, rng *Rand) (State, bool, error) {
	pre := g.Step == StepSacrifice && g.stopOnLHS()
	next, err := g.apply(a, rng)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", a, err)
	}
	return finish(pre, next, g.rules())
}

// Apply implements State. won is true once the last pirate is beaten.
func (p *PirateGameState) Apply(a Action, rng *Rand) (State, bool, error) {
	pre := p.Step == StepSacrifice && p.stopOnLHS()
	next, err := p.apply(a, rng)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", a, err)
	}
	if next == nil {
		return nil, true, nil
	}
	return finish(pre, next, p.rules())
}

// finish sends the player back to the free draws when a stop card that was
// on the left side during the sacrifice phase is gone, provided a card can
// still be drawn.
func finish(pre bool, next State, r *Rules) (State, bool, error) {
	if b := next.Common(); pre && b.Step == StepSacrifice && !b.stopOnLHS() && b.CanDraw(1) {
		switch s := next.(type) {
		case *GameState:
			ns := *s
			ns.Step = StepDrawFree
			next = &ns
		case *PirateGameState:
			ns := *s
			ns.Step = StepDrawFree
			next = &ns
		}
	}
	if r.Verify {
		if err := next.Verify(); err != nil {
			return nil, false, fmt.Errorf("verify after transition: %w", err)
		}
	}
	return next, false, nil
}

func hazardState(g *GameState, err error) (State, error) {
	if err != nil {
		return nil, err
	}
	return g, nil
}

func pirateState(p *PirateGameState, err error) (State, error) {
	if err != nil || p == nil {
		return nil, err
	}
	return p, nil
}

// unwrapCopy checks a copy action and returns the action it copies.
func unwrapCopy(a Action) (Action, error) {
	if a.Card == nil || a.Inner == nil {
		return a, fmt.Errorf("copy action: %w", ErrNilCard)
	}
	if a.Card.Ability != AbilityCopy {
		return a, fmt.Errorf("copy action with %s: %w", a.Card, ErrInvalidPhase)
	}
	if a.Inner.Type == ActUseCopy {
		return a, fmt.Errorf("copy of a copy: %w", ErrInvalidPhase)
	}
	return *a.Inner, nil
}

func (g *GameState) apply(a Action, rng *Rand) (State, error) {
	copied := false
	if a.Type == ActUseCopy {
		inner, err := unwrapCopy(a)
		if err != nil {
			return nil, err
		}
		g = g.FlagCopyUsed(a.Card)
		a, copied = inner, true
	}

	switch a.Type {
	case ActSelectFromTwo:
		return hazardState(g.SelectFromTwo(a.Index))
	case ActFightOrDiscard:
		return g.FightOrDiscard(a.Fight, rng)
	case ActDrawFree:
		return hazardState(g.DrawFree(rng))
	case ActEndDrawFree:
		return hazardState(g.EndDrawFree())
	case ActSacrificeDraw:
		return hazardState(g.SacrificeDraw(rng))
	case ActEndSacrifice:
		return g.EndSacrifice(rng)
	case ActDestroyWithLife:
		return g.PayLife(a.Destroy, rng)
	case ActUseAbility:
		return hazardState(g.UseAbility(a.Card, copied, rng))
	case ActUseAbilityTarget:
		return hazardState(g.UseAbilityTarget(a.Card, a.Target, copied, rng))
	case ActSortCards:
		return hazardState(g.SortCards(a.Order, a.Discard))
	case ActEndMultistage:
		return hazardState(g.EndMultistage())
	case ActSelectPirate, ActEndPirateRound:
		return nil, fmt.Errorf("pirate action during hazard rounds: %w", ErrInvalidPhase)
	}
	return nil, fmt.Errorf("action type %s: %w", a.Type, ErrInvalidPhase)
}

// apply returns nil, nil when the game is won.
func (p *PirateGameState) apply(a Action, rng *Rand) (State, error) {
	copied := false
	if a.Type == ActUseCopy {
		inner, err := unwrapCopy(a)
		if err != nil {
			return nil, err
		}
		p = p.FlagCopyUsed(a.Card)
		a, copied = inner, true
	}

	switch a.Type {
	case ActSelectPirate:
		return pirateState(p.SelectPirate(a.Pirate))
	case ActDrawFree:
		return pirateState(p.DrawFree(rng))
	case ActEndDrawFree:
		return pirateState(p.EndDrawFree())
	case ActSacrificeDraw:
		return pirateState(p.SacrificeDraw(rng))
	case ActEndPirateRound:
		return pirateState(p.EndPirateRound())
	case ActUseAbility:
		return pirateState(p.UseAbility(a.Card, copied, rng))
	case ActUseAbilityTarget:
		return pirateState(p.UseAbilityTarget(a.Card, a.Target, copied, rng))
	case ActSortCards:
		return pirateState(p.SortCards(a.Order, a.Discard))
	case ActEndMultistage:
		return pirateState(p.EndMultistage())
	case ActSelectFromTwo, ActFightOrDiscard, ActEndSacrifice, ActDestroyWithLife:
		return nil, fmt.Errorf("hazard action during pirate combat: %w", ErrPirateMode)
	}
	return nil, fmt.Errorf("action type %s: %w", a.Type, ErrInvalidPhase)
}
