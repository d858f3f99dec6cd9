package agent

import "github.com/jgwest/fridai/engine"

type cardSeq interface {
	Len() int
	At(i int) *engine.Card
}

// Score is the heuristic value of a state: life weighted far above the
// average rating of the player's cards (draw stack, discard and both
// sides). Destroying bad cards raises the average.
func Score(s engine.State) int64 {
	b := s.Common()
	sum, count := 0, 0
	for _, seq := range [...]cardSeq{b.Discard, b.LHS, b.RHS, b.Fighting} {
		n := seq.Len()
		for i := range n {
			sum += seq.At(i).RatingSimple()
		}
		count += n
	}

	score := int64(b.Life) * LifeWeight
	if count > 0 {
		score += QualityScale * int64(sum) / int64(count)
	}
	return score
}
