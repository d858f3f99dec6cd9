// Package agent plays Friday: a bounded best-first search picks each
// decision, a cycle detector breaks degenerate loops, and Play drives one
// game from deal to win or loss.
package agent

import (
	"container/heap"
	"errors"

	"github.com/jgwest/fridai/engine"
)

// ErrNoActions is returned when asked to search a state with no legal
// action, that is, a lost game.
var ErrNoActions = errors.New("no legal actions")

// ---------------------------------------------------------------------------
// Frontier
// ---------------------------------------------------------------------------

type frontierItem struct {
	node *Node
	seq  int // insertion order breaks score ties
}

// frontier is a max-heap of unexpanded nodes by heuristic score.
type frontier []frontierItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].node.Score != f[j].node.Score {
		return f[i].node.Score > f[j].node.Score
	}
	return f[i].seq < f[j].seq
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	it := old[n-1]
	old[n-1] = frontierItem{}
	*f = old[:n-1]
	return it
}

// ---------------------------------------------------------------------------
// Searcher
// ---------------------------------------------------------------------------

// Searcher chooses actions by best-first search. Budget bounds the nodes
// expanded per decision; the loop stops once more than Budget have been
// expanded, so a full search expands Budget+1.
type Searcher struct {
	Budget int
}

// SearchResult reports the chosen action and the tree it was chosen from.
type SearchResult struct {
	Action   engine.Action
	Score    int64 // backed-up score of the chosen action
	Expanded int   // nodes expanded
	Created  int   // nodes created, including the root's children
	Root     *Node
}

// Best returns the root action with the highest backed-up score; ties go
// to the action listed first. The transitions draw from rng, so the same
// state, budget and rng position always give the same choice.
func (s *Searcher) Best(state engine.State, rng *engine.Rand) (SearchResult, error) {
	acts, err := state.Actions()
	if err != nil {
		return SearchResult{}, err
	}
	if len(acts) == 0 {
		return SearchResult{}, ErrNoActions
	}

	root := &Node{}
	res := SearchResult{Root: root}
	var open frontier
	seq := 0

	expand := func(parent *Node, from engine.State, acts []engine.Action) error {
		for _, a := range acts {
			next, won, err := from.Apply(a, rng)
			if err != nil {
				return err
			}
			res.Created++
			if won {
				c := parent.AddChild(a, WinScore)
				c.Won = true
				continue
			}
			c := parent.AddChild(a, Score(next))
			c.state = next
			heap.Push(&open, frontierItem{node: c, seq: seq})
			seq++
		}
		return nil
	}

	if err := expand(root, state, acts); err != nil {
		return SearchResult{}, err
	}

	for open.Len() > 0 && res.Expanded <= s.Budget {
		n := heap.Pop(&open).(frontierItem).node
		st := n.state
		n.state = nil

		acts, err := st.Actions()
		if err != nil {
			return SearchResult{}, err
		}
		// A lost state keeps its heuristic score and does not count
		// against the budget.
		if len(acts) == 0 {
			continue
		}
		if g, ok := st.(*engine.GameState); ok && g.Step == engine.StepPayLife {
			acts = filterPayLife(acts)
		}
		if err := expand(n, st, acts); err != nil {
			return SearchResult{}, err
		}
		res.Expanded++
	}

	Backpropagate(root)
	best := root.Children[0]
	for _, c := range root.Children[1:] {
		if c.Final > best.Final {
			best = c
		}
	}
	res.Action = best.Action
	res.Score = best.Final
	return res, nil
}

// filterPayLife keeps, inside the tree, only the destroy set with the
// lowest total rating among those rating zero or less. When no set
// qualifies every action is kept.
func filterPayLife(acts []engine.Action) []engine.Action {
	bestIdx, bestSum := -1, 0
	for i, a := range acts {
		sum := 0
		for _, c := range a.Destroy {
			sum += c.RatingSimple()
		}
		if sum <= 0 && (bestIdx < 0 || sum < bestSum) {
			bestIdx, bestSum = i, sum
		}
	}
	if bestIdx < 0 {
		return acts
	}
	return acts[bestIdx : bestIdx+1]
}
