// internal/mcp/tools_test.go
package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jgwest/fridai/engine"
	"github.com/jgwest/fridai/engine/catalog"
	"github.com/jgwest/fridai/service/internal/game"
	"github.com/jgwest/fridai/service/internal/replay"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestTools(t *testing.T) *Tools {
	t.Helper()
	cat, err := catalog.Standard()
	require.NoError(t, err)
	rules := engine.DefaultRules()
	rules.Verify = true
	rules.NodeBudget = 25
	logger, _ := test.NewNullLogger()
	return NewTools(engine.NewEnv(cat, rules), replay.Checksum([]byte(catalog.Text())), logrus.NewEntry(logger))
}

// call invokes a handler and returns its text and error flag.
func call(t *testing.T, h handler, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text, res.IsError
}

func decode[T any](t *testing.T, text string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(text), &v), text)
	return v
}

func TestRegisterTools(t *testing.T) {
	s := server.NewMCPServer("fridai-test", "0.0.0")
	RegisterTools(s, newTestTools(t))
}

func TestNewGame(t *testing.T) {
	tools := newTestTools(t)
	var mu sync.Mutex
	var events []game.GameEvent
	tools.Broadcast = func(ev game.GameEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}

	text, isErr := call(t, tools.handleNewGame, map[string]any{"seed": "18446744073709551615", "budget": 10})
	require.False(t, isErr, text)
	resp := decode[GameResponse](t, text)
	assert.Equal(t, uint64(18446744073709551615), resp.State.Seed)
	assert.NotEmpty(t, resp.Actions)
	assert.Equal(t, 1, tools.Games.Len())

	g, err := tools.Games.Get(resp.GameID)
	require.NoError(t, err)
	assert.Equal(t, 10, g.Searcher.Budget)

	mu.Lock()
	require.Len(t, events, 1)
	assert.Equal(t, game.EventGameStart, events[0].Type)
	mu.Unlock()
}

func TestNewGameBadArgs(t *testing.T) {
	tools := newTestTools(t)
	_, isErr := call(t, tools.handleNewGame, map[string]any{"seed": "-4"})
	assert.True(t, isErr)
	_, isErr = call(t, tools.handleNewGame, map[string]any{"budget": -1})
	assert.True(t, isErr)
	assert.Zero(t, tools.Games.Len())
}

func TestNoGame(t *testing.T) {
	tools := newTestTools(t)
	for _, h := range []handler{tools.handleGetState, tools.handleLegalActions, tools.handleApplyAction, tools.handleBestAction} {
		text, isErr := call(t, h, map[string]any{"index": 0})
		assert.True(t, isErr)
		assert.Contains(t, text, "new_game")
	}
}

func TestApplyAction(t *testing.T) {
	tools := newTestTools(t)
	text, _ := call(t, tools.handleNewGame, map[string]any{"seed": "7"})
	start := decode[GameResponse](t, text)

	acts := decode[[]game.ActionView](t, mustCall(t, tools.handleLegalActions, nil))
	assert.Equal(t, start.Actions, acts)

	text, isErr := call(t, tools.handleApplyAction, map[string]any{"index": 0})
	require.False(t, isErr, text)
	after := decode[GameResponse](t, text)
	assert.Equal(t, start.GameID, after.GameID)
	assert.Equal(t, 1, after.State.StepCount)

	text, isErr = call(t, tools.handleApplyAction, map[string]any{"index": 999, "game_id": start.GameID})
	assert.True(t, isErr)
	assert.Contains(t, text, "out of range")

	_, isErr = call(t, tools.handleGetState, map[string]any{"game_id": "bogus"})
	assert.True(t, isErr)
}

func TestBestAction(t *testing.T) {
	tools := newTestTools(t)
	call(t, tools.handleNewGame, map[string]any{"seed": "12"})

	text, isErr := call(t, tools.handleBestAction, nil)
	require.False(t, isErr, text)
	advice := decode[AdviceResponse](t, text)
	assert.Nil(t, advice.Played)

	state := decode[GameResponse](t, mustCall(t, tools.handleGetState, nil))
	assert.Zero(t, state.State.StepCount, "advice does not move the game")

	text, isErr = call(t, tools.handleBestAction, map[string]any{"play": true})
	require.False(t, isErr, text)
	advice = decode[AdviceResponse](t, text)
	require.NotNil(t, advice.Played)
	assert.Equal(t, 1, advice.Played.State.StepCount)

	g, err := tools.Games.Get("")
	require.NoError(t, err)
	require.Len(t, g.Actions, 1)
	assert.Equal(t, advice.Action.Text, g.Actions[0].Action, "the reported action is the one played")
	assert.Equal(t, "search", g.Actions[0].By)
}

func mustCall(t *testing.T, h handler, args map[string]any) string {
	t.Helper()
	text, isErr := call(t, h, args)
	require.False(t, isErr, text)
	return text
}

// TestSaveAndLoadState verifies that a saved game resumes with the same
// state and continues with the same random draws.
func TestSaveAndLoadState(t *testing.T) {
	tools := newTestTools(t)
	orig := decode[GameResponse](t, mustCall(t, tools.handleNewGame, map[string]any{"seed": "31"}))
	for i := 0; i < 6; i++ {
		mustCall(t, tools.handleApplyAction, map[string]any{"index": 0, "game_id": orig.GameID})
	}

	path := filepath.Join(t.TempDir(), "saved.state.json")
	mustCall(t, tools.handleSaveState, map[string]any{"path": path, "game_id": orig.GameID})

	loaded := decode[GameResponse](t, mustCall(t, tools.handleLoadState, map[string]any{"path": path}))
	assert.NotEqual(t, orig.GameID, loaded.GameID)
	assert.Equal(t, 2, tools.Games.Len())

	g1, err := tools.Games.Get(orig.GameID)
	require.NoError(t, err)
	g2, err := tools.Games.Get(loaded.GameID)
	require.NoError(t, err)
	s1, c1 := g1.Snapshot()
	s2, c2 := g2.Snapshot()
	assert.True(t, s1.Equal(s2))
	assert.Equal(t, c1, c2)
	assert.Equal(t, g1.Seed, g2.Seed)

	if !g1.GameOver {
		v1, err := g1.ApplyAction(0)
		require.NoError(t, err)
		v2, err := g2.ApplyAction(0)
		require.NoError(t, err)
		assert.Equal(t, v1.Life, v2.Life)
		assert.Equal(t, v1.Step, v2.Step)
		assert.Equal(t, g1.RngCount(), g2.RngCount())
	}

	_, isErr := call(t, tools.handleLoadState, map[string]any{"path": filepath.Join(t.TempDir(), "missing.json")})
	assert.True(t, isErr)
}

func TestAbilityHelp(t *testing.T) {
	tools := newTestTools(t)
	text, isErr := call(t, tools.handleAbilityHelp, map[string]any{"ability": "1x Copy"})
	require.False(t, isErr)
	assert.Contains(t, text, "1x copy: ")

	_, isErr = call(t, tools.handleAbilityHelp, map[string]any{"ability": "teleport"})
	assert.True(t, isErr)
}
