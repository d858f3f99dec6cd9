// internal/game/game.go

// Package game hosts interactive Friday games: a player (a person, a tool
// client or the search) picks actions one at a time and every change is
// broadcast as a GameEvent.
package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jgwest/fridai/engine"
	"github.com/jgwest/fridai/engine/agent"
	"github.com/sirupsen/logrus"
)

// OnGameEndFunc is called once when a game ends, with the lock held.
type OnGameEndFunc func(gameID uuid.UUID, won bool, life, phaseScore int)

// GameEventType represents the type of a game event broadcast to watchers.
type GameEventType string

// Constants defining the GameEvent types.
const (
	EventGameStart  GameEventType = "game_start"  // A new game was dealt.
	EventGameAction GameEventType = "game_action" // An action was applied.
	EventSyncState  GameEventType = "sync_state"  // Full state, sent on request.
	EventGameEnd    GameEventType = "game_end"    // The game was won or lost.
)

// GameEvent is the standard structure for broadcasting game changes.
type GameEvent struct {
	Type   GameEventType `json:"type"`
	GameID uuid.UUID     `json:"gameId"`
	Step   int           `json:"step"`
	Action *ActionView   `json:"action,omitempty"`
	By     string        `json:"by,omitempty"` // "player" or "search"
	State  *StateView    `json:"state,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ActionRecord is one entry of a game's action log.
type ActionRecord struct {
	GameID      uuid.UUID `json:"gameId"`
	ActionIndex int       `json:"actionIndex"`
	Action      string    `json:"action"`
	By          string    `json:"by"`
	RngCount    uint64    `json:"rngCount"`
	Timestamp   int64     `json:"timestamp"`
}

var (
	// ErrGameOver is returned for any action on a finished game.
	ErrGameOver = errors.New("game is over")
	// ErrBadIndex is returned for an action index outside the legal list.
	ErrBadIndex = errors.New("action index out of range")
)

// FridayGame is one interactive game.
type FridayGame struct {
	ID   uuid.UUID
	Seed uint64
	Env  *engine.Env

	Mu sync.Mutex // Mutex protecting concurrent access to game state.

	State    engine.State
	Searcher agent.Searcher
	Steps    int
	GameOver bool
	Won      bool
	Life     int // life at the end of the game
	Phase    int // phase at the end of the game

	BroadcastFn func(ev GameEvent) // Sends an event to all watchers.
	OnGameEnd   OnGameEndFunc

	Log     *logrus.Entry
	Actions []ActionRecord

	rng     *engine.Rand
	history *agent.History
	legal   []engine.Action // cached legal actions of State, after cycle breaking
}

// NewFridayGame deals a game from seed.
func NewFridayGame(env *engine.Env, seed uint64) (*FridayGame, error) {
	rng := engine.NewRand(seed)
	s, err := engine.NewGame(env, rng)
	if err != nil {
		return nil, err
	}
	return newFromState(env, s, rng), nil
}

// ResumeFridayGame continues a saved state, drawing from rng.
func ResumeFridayGame(env *engine.Env, s engine.State, rng *engine.Rand) *FridayGame {
	return newFromState(env, s, rng)
}

func newFromState(env *engine.Env, s engine.State, rng *engine.Rand) *FridayGame {
	id := uuid.New()
	hs := env.Rules.HistorySize
	if hs <= 0 {
		hs = agent.DefaultHistorySize
	}
	g := &FridayGame{
		ID:       id,
		Seed:     rng.Seed(),
		Env:      env,
		State:    s,
		Searcher: agent.Searcher{Budget: env.Rules.NodeBudget},
		Log:      logrus.WithField("game", id.String()),
		rng:      rng,
		history:  agent.NewHistory(hs),
	}
	g.history.Push(s)
	return g
}

// Start announces the game to watchers.
func (g *FridayGame) Start() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	view := g.view()
	g.fireEvent(GameEvent{Type: EventGameStart, GameID: g.ID, State: &view})
	g.Log.WithField("seed", g.Seed).Info("Game started")
}

// fireEvent broadcasts an event to all watchers via the BroadcastFn callback.
// Assumes lock is held by caller.
func (g *FridayGame) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// legalActions returns the cached legal actions of the current state,
// narrowed by the cycle detector. An empty list ends the game as a loss.
// Assumes lock is held by caller.
func (g *FridayGame) legalActions() ([]engine.Action, error) {
	if g.legal != nil || g.GameOver {
		return g.legal, nil
	}
	acts, err := g.State.Actions()
	if err != nil {
		return nil, err
	}
	if len(acts) == 0 {
		b := g.State.Common()
		g.endGame(false, b.Life, b.Slow.Phase)
		return nil, nil
	}
	g.legal = g.history.BreakCycle(g.State, acts)
	return g.legal, nil
}

// LegalActions returns the actions the player may take now.
func (g *FridayGame) LegalActions() ([]ActionView, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	acts, err := g.legalActions()
	if err != nil {
		return nil, err
	}
	return actionViews(acts), nil
}

// ApplyAction takes the legal action at index.
func (g *FridayGame) ApplyAction(index int) (StateView, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if err := g.applyIndex(index, "player"); err != nil {
		return StateView{}, err
	}
	return g.view(), nil
}

// BestAction runs the search from the current state and returns its
// choice without applying it.
func (g *FridayGame) BestAction() (ActionView, agent.SearchResult, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	idx, res, err := g.search()
	if err != nil {
		return ActionView{}, res, err
	}
	return actionView(idx, g.legal[idx]), res, nil
}

// PlayBest runs the search and applies its choice under one lock, so no
// other action can land between the two. It returns the action played.
func (g *FridayGame) PlayBest() (ActionView, agent.SearchResult, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	idx, res, err := g.search()
	if err != nil {
		return ActionView{}, res, err
	}
	played := actionView(idx, g.legal[idx])
	if err := g.applyIndex(idx, "search"); err != nil {
		return ActionView{}, res, err
	}
	return played, res, nil
}

// search picks an action index. A single legal action is taken without
// searching. The search draws from a copy of the game's random source so
// that asking for advice never changes the game.
// Assumes lock is held by caller.
func (g *FridayGame) search() (int, agent.SearchResult, error) {
	if g.GameOver {
		return 0, agent.SearchResult{}, ErrGameOver
	}
	acts, err := g.legalActions()
	if err != nil {
		return 0, agent.SearchResult{}, err
	}
	if g.GameOver {
		return 0, agent.SearchResult{}, ErrGameOver
	}
	if len(acts) == 1 {
		return 0, agent.SearchResult{Action: acts[0]}, nil
	}

	rng := engine.ReplayRand(g.rng.Seed(), g.rng.Count())
	res, err := g.Searcher.Best(g.State, rng)
	if err != nil {
		return 0, res, err
	}
	res.Root = nil
	for i, a := range acts {
		if a.Equal(res.Action) {
			return i, res, nil
		}
	}
	// The cycle detector removed the search's choice; take what is left.
	return 0, res, nil
}

// applyIndex applies acts[index] and handles the end of the game.
// Assumes lock is held by caller.
func (g *FridayGame) applyIndex(index int, by string) error {
	if g.GameOver {
		return ErrGameOver
	}
	acts, err := g.legalActions()
	if err != nil {
		return err
	}
	if g.GameOver {
		return ErrGameOver
	}
	if index < 0 || index >= len(acts) {
		return fmt.Errorf("%w: %d not in 0..%d", ErrBadIndex, index, len(acts)-1)
	}
	a := acts[index]
	count := g.rng.Count()
	before := g.State.Common()

	next, won, err := g.State.Apply(a, g.rng)
	if err != nil {
		g.Log.WithError(err).WithFields(logrus.Fields{"seed": g.Seed, "rngCount": count}).Error("Invariant violated")
		return &agent.ReplayError{Seed: g.Seed, Count: count, State: g.State, Err: err}
	}
	g.Steps++
	g.logAction(a, by, count)
	av := actionView(index, a)
	g.fireEvent(GameEvent{Type: EventGameAction, GameID: g.ID, Step: g.Steps, Action: &av, By: by})

	g.legal = nil
	if won {
		g.endGame(true, before.Life, before.Slow.Phase)
		return nil
	}
	g.State = next
	g.history.Push(next)
	// Resolve a loss right away so watchers see the end.
	_, err = g.legalActions()
	return err
}

// logAction appends to the action log.
// Assumes lock is held by caller.
func (g *FridayGame) logAction(a engine.Action, by string, count uint64) {
	g.Actions = append(g.Actions, ActionRecord{
		GameID:      g.ID,
		ActionIndex: g.Steps,
		Action:      a.String(),
		By:          by,
		RngCount:    count,
		Timestamp:   time.Now().UnixMilli(),
	})
}

// endGame marks the game finished and notifies watchers.
// Assumes lock is held by caller.
func (g *FridayGame) endGame(won bool, life, phase int) {
	if g.GameOver {
		return
	}
	g.GameOver, g.Won, g.Life, g.Phase = true, won, life, phase
	result := agent.ResultLoss
	if won {
		result = agent.ResultWin
	}
	ps := agent.PhaseScore(result, phase)
	g.Log.WithFields(logrus.Fields{"result": result, "life": life, "phaseScore": ps, "steps": g.Steps}).Info("Game over")
	g.fireEvent(GameEvent{
		Type:    EventGameEnd,
		GameID:  g.ID,
		Step:    g.Steps,
		Payload: map[string]interface{}{"result": result.String(), "life": life, "phaseScore": ps},
	})
	if g.OnGameEnd != nil {
		g.OnGameEnd(g.ID, won, life, ps)
	}
}

// View returns the current state for display.
func (g *FridayGame) View() StateView {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.view()
}

// SyncState broadcasts the full state.
func (g *FridayGame) SyncState() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	v := g.view()
	g.fireEvent(GameEvent{Type: EventSyncState, GameID: g.ID, Step: g.Steps, State: &v})
}

// Snapshot returns the current state with the random count it was reached at.
func (g *FridayGame) Snapshot() (engine.State, uint64) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.State, g.rng.Count()
}

// RngCount returns how many random values the game has drawn.
func (g *FridayGame) RngCount() uint64 {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.rng.Count()
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// Registry holds the live games of a process.
type Registry struct {
	mu    sync.Mutex
	games map[uuid.UUID]*FridayGame
	last  uuid.UUID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{games: make(map[uuid.UUID]*FridayGame)}
}

// Add registers g and makes it the default game.
func (r *Registry) Add(g *FridayGame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.ID] = g
	r.last = g.ID
}

// Get returns the game with the given id. An empty id selects the game
// added last.
func (r *Registry) Get(id string) (*FridayGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.last
	if id != "" {
		var err error
		if key, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("bad game id %q: %w", id, err)
		}
	}
	g, ok := r.games[key]
	if !ok {
		return nil, fmt.Errorf("no game %q", id)
	}
	return g, nil
}

// Remove forgets a game.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, id)
	if r.last == id {
		r.last = uuid.Nil
	}
}

// Len returns the number of games held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}
