package agent

import (
	"fmt"
	"math"
)

// Heuristic weights. Life dominates: one life point outweighs any
// difference in card quality.
const (
	WinScore     int64 = math.MaxInt64 // a won game
	LifeWeight   int64 = 10_000_000
	QualityScale int64 = 1000 // average card rating is scaled before truncation
)

// DefaultHistorySize is the number of states the cycle detector keeps.
const DefaultHistorySize = 10

// Result is how a played game ended.
type Result uint8

const (
	ResultLoss Result = iota // 0: no legal action left
	ResultWin                // 1: every pirate beaten
)

func (r Result) String() string {
	switch r {
	case ResultLoss:
		return "loss"
	case ResultWin:
		return "win"
	}
	return fmt.Sprintf("Result(%d)", uint8(r))
}

// PhaseScoreWin is the phase score recorded for a won game. A lost game
// records the phase it ended in: 2 green, 1 yellow, 0 red, -1 pirates.
const PhaseScoreWin = -2

// PhaseScore maps an outcome to the value written to the result log.
func PhaseScore(r Result, phase int) int {
	if r == ResultWin {
		return PhaseScoreWin
	}
	return phase
}
