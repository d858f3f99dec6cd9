package engine

import "sync"

// MaxComboCount is the largest number of cards whose subsets are enumerated
// for a pay-life destroy choice.
const MaxComboCount = 18

// Permutations3 lists the orderings of three sorted cards.
var Permutations3 = [6][3]int{
	{0, 1, 2},
	{0, 2, 1},
	{1, 0, 2},
	{1, 2, 0},
	{2, 0, 1},
	{2, 1, 0},
}

var combos [MaxComboCount + 1]struct {
	once sync.Once
	sets [][]int
}

// Combos returns every subset of {0..n-1}, including the empty set, as
// index lists. Subsets are ordered by descending bitmask (the full set
// first, the empty set last) and indices within a subset are descending.
// The result is computed once per n and shared; callers must not modify it.
// n is clamped to [0, MaxComboCount].
func Combos(n int) [][]int {
	n = max(0, min(n, MaxComboCount))
	e := &combos[n]
	e.once.Do(func() { e.sets = generateCombos(n) })
	return e.sets
}

func generateCombos(n int) [][]int {
	total := 1 << n
	// one backing array for all index lists: n * 2^(n-1) entries
	backing := make([]int, 0, n*total/2)
	out := make([][]int, 0, total)
	for val := total - 1; val >= 0; val-- {
		start := len(backing)
		for bit := n - 1; bit >= 0; bit-- {
			if val&(1<<bit) != 0 {
				backing = append(backing, bit)
			}
		}
		out = append(out, backing[start:len(backing):len(backing)])
	}
	return out
}
