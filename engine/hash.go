package engine

// ---------------------------------------------------------------------------
// State hashing
// ---------------------------------------------------------------------------

// FNV-1a over physical ids and the small scalar fields. Equal states always
// hash the same; the cycle detector uses the hash to skip most deep
// comparisons.
const (
	fnvOffset = uint64(14695981039346656037)
	fnvPrime  = uint64(1099511628211)
)

type hasher uint64

func (h *hasher) word(v uint64) {
	*h ^= hasher(v)
	*h *= hasher(fnvPrime)
}

func (h *hasher) cards(cards []*Card) {
	for _, c := range cards {
		h.word(uint64(c.PhysicalID))
	}
	h.word(uint64(len(cards)) << 8)
}

func (b *Board) hash(h *hasher) {
	h.word(uint64(b.Step))
	h.word(uint64(int64(b.Life)))
	h.word(uint64(b.Used))
	h.word(uint64(b.Doubled))
	h.cards(b.Fighting.cards)
	h.cards(b.Discard.cards)
	h.cards(b.LHS.cards)
	h.cards(b.RHS.cards)
	if ao := b.Ability; ao != nil {
		h.word(uint64(ao.Card.PhysicalID) << 16)
		h.word(uint64(ao.Drawn)<<8 | uint64(ao.Stage))
		h.cards(ao.SortCards)
	}
	s := b.Slow
	h.word(uint64(int64(s.Phase)) << 32)
	h.cards(s.Aging.cards)
	h.cards(s.RoundCards.cards)
	for _, pc := range s.Pirates {
		h.word(uint64(pc.ID) << 48)
	}
}

// Hash implements State.
func (g *GameState) Hash() uint64 {
	h := hasher(fnvOffset)
	g.Board.hash(&h)
	h.cards(g.Hazards.cards)
	h.cards(g.HazardDiscard.cards)
	if g.ActiveHazard != nil {
		h.word(uint64(g.ActiveHazard.PhysicalID) << 24)
	}
	return uint64(h)
}

// Hash implements State.
func (p *PirateGameState) Hash() uint64 {
	h := hasher(fnvOffset)
	p.Board.hash(&h)
	if p.ActivePirate != nil {
		h.word(uint64(p.ActivePirate.ID) << 56)
	}
	if p.PirateInfo != nil {
		h.word(uint64(int64(p.PirateInfo.HazardPoints)))
		h.word(uint64(int64(p.PirateInfo.FreeCards)))
	}
	return uint64(h)
}
