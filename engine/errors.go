package engine

import "errors"

// Invariant violations. A transition that returns one of these has found a
// logic defect, not a reachable player situation; callers should stop the
// game and keep the state for replay.
var (
	ErrInvalidPhase  = errors.New("action not valid in current phase")
	ErrCardNotFound  = errors.New("card not found")
	ErrDuplicateCard = errors.New("duplicate physical card")
	ErrNilCard       = errors.New("nil card")
	ErrEmptyStack    = errors.New("stack is empty")
	ErrPirateMode    = errors.New("not supported in pirate combat")
)
