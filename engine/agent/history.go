package agent

import "github.com/jgwest/fridai/engine"

// History keeps the last few states of a game to catch the player going
// round in circles, e.g. exchanging cards back and forth without ever
// ending the fight.
type History struct {
	size   int
	states []engine.State
	hashes []uint64
}

// NewHistory returns a history holding at most size states.
func NewHistory(size int) *History {
	if size < 2 {
		size = 2
	}
	return &History{
		size:   size,
		states: make([]engine.State, 0, size),
		hashes: make([]uint64, 0, size),
	}
}

// Push records s as the most recent state.
func (h *History) Push(s engine.State) {
	if len(h.states) == h.size {
		copy(h.states, h.states[1:])
		copy(h.hashes, h.hashes[1:])
		h.states = h.states[:h.size-1]
		h.hashes = h.hashes[:h.size-1]
	}
	h.states = append(h.states, s)
	h.hashes = append(h.hashes, s.Hash())
}

// Len returns the number of states held.
func (h *History) Len() int { return len(h.states) }

// Repeated reports whether s equals any recorded state other than the most
// recent one, which is normally s itself.
func (h *History) Repeated(s engine.State) bool {
	hash := s.Hash()
	for i := 0; i < len(h.states)-1; i++ {
		if h.hashes[i] == hash && h.states[i].Equal(s) {
			return true
		}
	}
	return false
}

// BreakCycle narrows acts to the action that ends the fight when s repeats
// an earlier state during the sacrifice step. Otherwise acts is returned
// unchanged.
func (h *History) BreakCycle(s engine.State, acts []engine.Action) []engine.Action {
	if s.Common().Step != engine.StepSacrifice || !h.Repeated(s) {
		return acts
	}
	for _, a := range acts {
		if a.Type == engine.ActEndSacrifice || a.Type == engine.ActEndPirateRound {
			return []engine.Action{a}
		}
	}
	return acts
}
