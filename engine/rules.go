package engine

// Rules holds the configurable game and engine settings. A Rules value is
// built once at startup and never modified.
type Rules struct {
	StartingLife     int  // life before the cap is applied
	LifeCap          int  // life ceiling, ignored when LargeLife is set
	LargeLife        bool // disable the life ceiling
	Verify           bool // check card invariants after every transition
	NodeBudget       int  // search nodes expanded per decision
	SidePileCap      int  // initial capacity of the left and right piles
	HazardDiscardCap int
	FightDiscardCap  int
	Level            int // game difficulty level, 1..4
	Pirates          int // pirates drawn for the final combat
	StartPhase       int // 2 green, 1 yellow, 0 red
	HistorySize      int // states kept by the cycle detector
	MaxComboCount    int // largest pay-life destroy set enumerated
}

// DefaultRules returns the standard solo rules at level 1.
func DefaultRules() Rules {
	return Rules{
		StartingLife:     120,
		LifeCap:          22,
		LargeLife:        false,
		Verify:           false,
		NodeBudget:       200000,
		SidePileCap:      6,
		HazardDiscardCap: 15,
		FightDiscardCap:  60,
		Level:            1,
		Pirates:          2,
		StartPhase:       2,
		HistorySize:      10,
		MaxComboCount:    MaxComboCount,
	}
}

// clampLife applies the life ceiling.
func (r *Rules) clampLife(life int) int {
	if !r.LargeLife && life > r.LifeCap {
		return r.LifeCap
	}
	return life
}

// comboCap returns the effective destroy-set limit.
func (r *Rules) comboCap() int {
	if r.MaxComboCount <= 0 || r.MaxComboCount > MaxComboCount {
		return MaxComboCount
	}
	return r.MaxComboCount
}
