package agent

import "github.com/jgwest/fridai/engine"

// Node is one state in a search tree, reached from its parent by Action.
// Score is the heuristic score assigned when the node was created; a node
// whose action won the game scores WinScore and is never expanded. Final
// is set by Backpropagate.
type Node struct {
	Action   engine.Action
	Score    int64
	Final    int64
	Won      bool
	Children []*Node

	state engine.State // dropped once the node is expanded
}

// AddChild appends a child reached by a with the given score.
func (n *Node) AddChild(a engine.Action, score int64) *Node {
	c := &Node{Action: a, Score: score}
	n.Children = append(n.Children, c)
	return c
}

// Backpropagate sets Final on every node under root: a leaf keeps its
// heuristic score, any other node takes the maximum Final of its children.
// The walk is iterative; search trees can be as deep as the node budget.
func Backpropagate(root *Node) {
	type frame struct {
		n    *Node
		next int
	}
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.n.Children) {
			child := top.n.Children[top.next]
			top.next++
			stack = append(stack, frame{n: child})
			continue
		}
		n := top.n
		stack = stack[:len(stack)-1]
		if len(n.Children) == 0 {
			n.Final = n.Score
			continue
		}
		n.Final = n.Children[0].Final
		for _, c := range n.Children[1:] {
			n.Final = max(n.Final, c.Final)
		}
	}
}
