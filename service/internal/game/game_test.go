// internal/game/game_test.go
package game

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jgwest/fridai/engine"
	"github.com/jgwest/fridai/engine/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster captures game events for testing assertions.
type mockBroadcaster struct {
	mu        sync.Mutex
	allEvents []GameEvent
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{}
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = []GameEvent{}
}

func (mb *mockBroadcaster) getLastEvent() *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.allEvents) == 0 {
		return nil
	}
	return &mb.allEvents[len(mb.allEvents)-1]
}

func (mb *mockBroadcaster) countByType(eventType GameEventType) int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	n := 0
	for _, ev := range mb.allEvents {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

// setupTestGame deals a game from seed with a small search budget and a
// mock broadcaster attached.
func setupTestGame(t *testing.T, seed uint64) (*FridayGame, *mockBroadcaster) {
	t.Helper()
	cat, err := catalog.Standard()
	require.NoError(t, err)
	rules := engine.DefaultRules()
	rules.Verify = true
	rules.NodeBudget = 25

	g, err := NewFridayGame(engine.NewEnv(cat, rules), seed)
	require.NoError(t, err)
	mb := newMockBroadcaster()
	g.BroadcastFn = mb.broadcastFn
	return g, mb
}

// playOut lets the search finish the game.
func playOut(t *testing.T, g *FridayGame) {
	t.Helper()
	for i := 0; i < 5000 && !g.GameOver; i++ {
		_, _, err := g.PlayBest()
		require.NoError(t, err)
	}
	require.True(t, g.GameOver, "game did not finish")
}

func TestStartBroadcastsState(t *testing.T) {
	g, mb := setupTestGame(t, 3)
	g.Start()

	ev := mb.getLastEvent()
	require.NotNil(t, ev)
	assert.Equal(t, EventGameStart, ev.Type)
	assert.Equal(t, g.ID, ev.GameID)
	require.NotNil(t, ev.State)
	assert.Equal(t, uint64(3), ev.State.Seed)
	assert.Equal(t, g.State.Common().Life, ev.State.Life)
	assert.Equal(t, 2, ev.State.Phase, "games start in the green phase")
	assert.False(t, ev.State.GameOver)
}

func TestApplyAction(t *testing.T) {
	g, mb := setupTestGame(t, 5)
	acts, err := g.LegalActions()
	require.NoError(t, err)
	require.NotEmpty(t, acts)
	for i, a := range acts {
		assert.Equal(t, i, a.Index)
		assert.NotEmpty(t, a.Type)
		assert.NotEmpty(t, a.Text)
	}

	view, err := g.ApplyAction(0)
	require.NoError(t, err)
	assert.Equal(t, 1, view.StepCount)
	assert.Equal(t, 1, g.Steps)

	ev := mb.getLastEvent()
	require.NotNil(t, ev)
	if g.GameOver {
		assert.Equal(t, EventGameEnd, ev.Type)
	} else {
		assert.Equal(t, EventGameAction, ev.Type)
		require.NotNil(t, ev.Action)
		assert.Equal(t, acts[0].Text, ev.Action.Text)
		assert.Equal(t, "player", ev.By)
	}

	require.Len(t, g.Actions, 1)
	assert.Equal(t, acts[0].Text, g.Actions[0].Action)
	assert.Equal(t, "player", g.Actions[0].By)
}

func TestApplyActionBadIndex(t *testing.T) {
	g, mb := setupTestGame(t, 5)
	acts, err := g.LegalActions()
	require.NoError(t, err)

	_, err = g.ApplyAction(len(acts))
	assert.ErrorIs(t, err, ErrBadIndex)
	_, err = g.ApplyAction(-1)
	assert.ErrorIs(t, err, ErrBadIndex)
	assert.Zero(t, g.Steps)
	assert.Nil(t, mb.getLastEvent(), "rejected actions are not broadcast")
}

// TestBestActionLeavesGameUnchanged verifies that asking for advice neither
// draws from the game's random source nor moves the game.
func TestBestActionLeavesGameUnchanged(t *testing.T) {
	g, _ := setupTestGame(t, 11)
	before := g.View()
	count := g.RngCount()

	best, res, err := g.BestAction()
	require.NoError(t, err)
	assert.Nil(t, res.Root, "search tree is not kept")

	acts, err := g.LegalActions()
	require.NoError(t, err)
	require.Less(t, best.Index, len(acts))
	assert.Equal(t, acts[best.Index].Text, best.Text)

	assert.Equal(t, count, g.RngCount())
	assert.Equal(t, before, g.View())
	assert.Zero(t, g.Steps)
}

func TestPlayBestToEnd(t *testing.T) {
	g, mb := setupTestGame(t, 21)
	var ends int
	var endWon bool
	var endID uuid.UUID
	g.OnGameEnd = func(id uuid.UUID, won bool, life, phaseScore int) {
		ends++
		endID, endWon = id, won
		if won {
			assert.Equal(t, -2, phaseScore)
		}
	}

	playOut(t, g)

	assert.Equal(t, 1, ends)
	assert.Equal(t, g.ID, endID)
	assert.Equal(t, g.Won, endWon)
	assert.Equal(t, 1, mb.countByType(EventGameEnd))
	assert.Equal(t, g.Steps, mb.countByType(EventGameAction))
	for _, rec := range g.Actions {
		assert.Equal(t, "search", rec.By)
	}

	last := mb.getLastEvent()
	require.NotNil(t, last)
	assert.Equal(t, EventGameEnd, last.Type)
	if g.Won {
		assert.Equal(t, "win", last.Payload["result"])
	} else {
		assert.Equal(t, "loss", last.Payload["result"])
	}

	view := g.View()
	assert.True(t, view.GameOver)
	assert.Equal(t, g.Won, view.Won)
	assert.Equal(t, g.Life, view.Life)

	mb.clear()
	_, err := g.ApplyAction(0)
	assert.ErrorIs(t, err, ErrGameOver)
	_, _, err = g.PlayBest()
	assert.ErrorIs(t, err, ErrGameOver)
	_, _, err = g.BestAction()
	assert.ErrorIs(t, err, ErrGameOver)
	assert.Nil(t, mb.getLastEvent())
}

// TestSameSeedSameGame verifies that two games dealt from one seed and
// driven by the search play identically.
func TestSameSeedSameGame(t *testing.T) {
	a, _ := setupTestGame(t, 8)
	b, _ := setupTestGame(t, 8)
	for i := 0; i < 30 && !a.GameOver; i++ {
		pa, _, err := a.PlayBest()
		require.NoError(t, err)
		pb, _, err := b.PlayBest()
		require.NoError(t, err)
		require.Equal(t, pa, pb, "step %d", i)
		va, vb := a.View(), b.View()
		va.GameID, vb.GameID = uuid.Nil, uuid.Nil
		require.Equal(t, va, vb, "step %d", i)
	}
}

// TestPlayBestAfterInterleavedAction verifies that advice taken before
// another client acts goes stale, while PlayBest plays the search's choice
// for the state it actually finds.
func TestPlayBestAfterInterleavedAction(t *testing.T) {
	g, _ := setupTestGame(t, 7)
	acts, err := g.LegalActions()
	require.NoError(t, err)
	require.Len(t, acts, 2, "a new game offers two hazards")

	advice, _, err := g.BestAction()
	require.NoError(t, err)

	// Another client takes the other hazard first.
	_, err = g.ApplyAction(1 - advice.Index)
	require.NoError(t, err)

	want, _, err := g.BestAction()
	require.NoError(t, err)
	played, _, err := g.PlayBest()
	require.NoError(t, err)
	assert.Equal(t, want, played)

	require.Len(t, g.Actions, 2)
	last := g.Actions[1]
	assert.Equal(t, "search", last.By)
	assert.Equal(t, played.Text, last.Action)
}

// TestPlayBestConcurrentApply runs PlayBest against concurrent applies and
// checks every action PlayBest reports is the one it logged.
func TestPlayBestConcurrentApply(t *testing.T) {
	g, _ := setupTestGame(t, 7)
	var mu sync.Mutex
	var played []string
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if w%2 == 0 {
					a, _, err := g.PlayBest()
					if err != nil {
						continue
					}
					mu.Lock()
					played = append(played, a.Text)
					mu.Unlock()
				} else {
					g.ApplyAction(0)
				}
			}
		}(w)
	}
	wg.Wait()

	g.Mu.Lock()
	defer g.Mu.Unlock()
	var logged []string
	for _, rec := range g.Actions {
		if rec.By == "search" {
			logged = append(logged, rec.Action)
		}
	}
	assert.ElementsMatch(t, logged, played)
}

func TestSyncState(t *testing.T) {
	g, mb := setupTestGame(t, 4)
	g.SyncState()
	ev := mb.getLastEvent()
	require.NotNil(t, ev)
	assert.Equal(t, EventSyncState, ev.Type)
	require.NotNil(t, ev.State)
	assert.Equal(t, g.View(), *ev.State)
}

func TestStateViewHazardOffer(t *testing.T) {
	g, _ := setupTestGame(t, 6)
	view := g.View()
	if g.State.Common().Step != engine.StepSelectHazard {
		t.Skipf("first step is %s", view.Step)
	}
	assert.Len(t, view.Offered, 2)
	for _, h := range view.Offered {
		assert.NotEmpty(t, h.HazardTitle)
		assert.Len(t, h.HazardValues, 3)
	}
	assert.Nil(t, view.ActiveHazard)
	assert.Nil(t, view.Ability)
}

func TestAbilityHelp(t *testing.T) {
	assert.Empty(t, AbilityHelp(engine.AbilityNone))
	assert.NotEmpty(t, AbilityHelp(engine.AbilityCopy))
	assert.NotEmpty(t, AbilityHelp(engine.AbilityHighestCardIsZero))
	assert.Nil(t, abilityView(nil))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("")
	assert.Error(t, err)

	g1, _ := setupTestGame(t, 1)
	g2, _ := setupTestGame(t, 2)
	r.Add(g1)
	r.Add(g2)
	assert.Equal(t, 2, r.Len())

	got, err := r.Get("")
	require.NoError(t, err)
	assert.Same(t, g2, got, "empty id selects the newest game")

	got, err = r.Get(g1.ID.String())
	require.NoError(t, err)
	assert.Same(t, g1, got)

	_, err = r.Get("not-a-uuid")
	assert.Error(t, err)

	r.Remove(g2.ID)
	assert.Equal(t, 1, r.Len())
	_, err = r.Get("")
	assert.Error(t, err)
}
