package engine

import "math/rand/v2"

// Rand is a deterministic random source that counts how many values it has
// produced. A game can be replayed exactly by building ReplayRand with the
// seed and the count recorded before the step of interest.
type Rand struct {
	*rand.Rand
	seed uint64
	src  *countingSource
}

type countingSource struct {
	pcg *rand.PCG
	n   uint64
}

func (s *countingSource) Uint64() uint64 {
	s.n++
	return s.pcg.Uint64()
}

// NewRand returns a source seeded with seed.
func NewRand(seed uint64) *Rand {
	src := &countingSource{pcg: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	return &Rand{Rand: rand.New(src), seed: seed, src: src}
}

// ReplayRand returns a source seeded with seed that has already produced
// count values.
func ReplayRand(seed, count uint64) *Rand {
	r := NewRand(seed)
	for r.src.n < count {
		r.src.Uint64()
	}
	return r
}

// Seed returns the seed the source was built with.
func (r *Rand) Seed() uint64 { return r.seed }

// Count returns the number of raw values produced so far.
func (r *Rand) Count() uint64 { return r.src.n }

// ShuffleCards permutes cards in place.
func (r *Rand) ShuffleCards(cards []*Card) {
	r.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}
