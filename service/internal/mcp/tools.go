// internal/mcp/tools.go

// Package mcp exposes interactive Friday games as MCP tools: a client can
// deal a game, inspect it, take actions and ask the search for advice.
package mcp

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/jgwest/fridai/engine"
	"github.com/jgwest/fridai/service/internal/game"
	"github.com/jgwest/fridai/service/internal/replay"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// Tools holds what the tool handlers share.
type Tools struct {
	Env      *engine.Env
	Games    *game.Registry
	Checksum string // card file checksum written to and checked on saved states
	Log      *logrus.Entry

	// Broadcast, when set, receives the events of every game.
	Broadcast func(ev game.GameEvent)
}

// NewTools returns tools playing with env.
func NewTools(env *engine.Env, checksum string, log *logrus.Entry) *Tools {
	return &Tools{Env: env, Games: game.NewRegistry(), Checksum: checksum, Log: log}
}

// RegisterTools adds all game tools to the MCP server.
func RegisterTools(s *server.MCPServer, t *Tools) {
	s.AddTool(newGameTool(), t.handleNewGame)
	s.AddTool(getStateTool(), t.handleGetState)
	s.AddTool(legalActionsTool(), t.handleLegalActions)
	s.AddTool(applyActionTool(), t.handleApplyAction)
	s.AddTool(bestActionTool(), t.handleBestAction)
	s.AddTool(loadStateTool(), t.handleLoadState)
	s.AddTool(saveStateTool(), t.handleSaveState)
	s.AddTool(abilityHelpTool(), t.handleAbilityHelp)
}

// --- Tool definitions ---

func gameIDOption() mcp.ToolOption {
	return mcp.WithString("game_id", mcp.Description("Game to act on; defaults to the game started or loaded last"))
}

func newGameTool() mcp.Tool {
	return mcp.NewTool("new_game",
		mcp.WithDescription("Deal a new solo Friday game. Returns the game id, the visible state and the legal actions."),
		mcp.WithString("seed", mcp.Description("Unsigned 64-bit random seed in decimal; random when omitted")),
		mcp.WithNumber("budget", mcp.Description("Search nodes expanded per decision for best_action; defaults to the configured budget")),
	)
}

func getStateTool() mcp.Tool {
	return mcp.NewTool("state",
		mcp.WithDescription("Get the visible state of a game and its legal actions. Read-only."),
		gameIDOption(),
	)
}

func legalActionsTool() mcp.Tool {
	return mcp.NewTool("legal_actions",
		mcp.WithDescription("List only the legal actions of a game, with the index apply_action takes. Read-only."),
		gameIDOption(),
	)
}

func applyActionTool() mcp.Tool {
	return mcp.NewTool("apply_action",
		mcp.WithDescription("Take one of the legal actions listed by state or legal_actions."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index into the legal actions list")),
		gameIDOption(),
	)
}

func bestActionTool() mcp.Tool {
	return mcp.NewTool("best_action",
		mcp.WithDescription("Run the best-first search from the current state. Returns its choice; with play set, also takes it."),
		mcp.WithBoolean("play", mcp.Description("Apply the chosen action")),
		gameIDOption(),
	)
}

func loadStateTool() mcp.Tool {
	return mcp.NewTool("load_state",
		mcp.WithDescription("Resume a game from a saved state file, such as one written when a simulation hit an invariant error."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the JSON state file")),
	)
}

func saveStateTool() mcp.Tool {
	return mcp.NewTool("save_state",
		mcp.WithDescription("Write the current state of a game to a JSON file that load_state and the simulator can replay."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the JSON state file")),
		gameIDOption(),
	)
}

func abilityHelpTool() mcp.Tool {
	return mcp.NewTool("ability_help",
		mcp.WithDescription("Explain a fighting card ability, e.g. '1x copy' or 'phase -1'."),
		mcp.WithString("ability", mcp.Required(), mcp.Description("Ability text as shown on a card")),
	)
}

// --- Responses ---

// GameResponse is returned by every tool that shows a game.
type GameResponse struct {
	GameID  string            `json:"gameId"`
	State   game.StateView    `json:"state"`
	Actions []game.ActionView `json:"actions"`
}

// AdviceResponse is returned by best_action.
type AdviceResponse struct {
	Action   game.ActionView `json:"action"`
	Score    int64           `json:"score"`
	Expanded int             `json:"expanded"`
	Created  int             `json:"created"`
	Played   *GameResponse   `json:"played,omitempty"`
}

func respondJSON(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to encode response: %v", err)
	}
	return mcp.NewToolResultText(string(data))
}

func gameResponse(g *game.FridayGame) (*GameResponse, error) {
	acts, err := g.LegalActions()
	if err != nil {
		return nil, err
	}
	if acts == nil {
		acts = []game.ActionView{}
	}
	return &GameResponse{GameID: g.ID.String(), State: g.View(), Actions: acts}, nil
}

func (t *Tools) game(request mcp.CallToolRequest) (*game.FridayGame, *mcp.CallToolResult) {
	g, err := t.Games.Get(request.GetString("game_id", ""))
	if err != nil {
		return nil, mcp.NewToolResultErrorf("%v. Use new_game or load_state first.", err)
	}
	return g, nil
}

// register wires a new game in and announces it.
func (t *Tools) register(g *game.FridayGame) *mcp.CallToolResult {
	g.BroadcastFn = t.Broadcast
	g.Start()
	t.Games.Add(g)
	resp, err := gameResponse(g)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to list actions: %v", err)
	}
	return respondJSON(resp)
}

// --- Tool handlers ---

func (t *Tools) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seed := rand.Uint64()
	if s := request.GetString("seed", ""); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return mcp.NewToolResultErrorf("Invalid seed %q: %v", s, err), nil
		}
		seed = v
	}
	budget := request.GetInt("budget", 0)
	if budget < 0 {
		return mcp.NewToolResultError("budget must be >= 0"), nil
	}

	g, err := game.NewFridayGame(t.Env, seed)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to deal game: %v", err), nil
	}
	if budget > 0 {
		g.Searcher.Budget = budget
	}
	t.Log.WithFields(logrus.Fields{"game": g.ID.String(), "seed": seed}).Info("MCP game dealt")
	return t.register(g), nil
}

func (t *Tools) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, errRes := t.game(request)
	if errRes != nil {
		return errRes, nil
	}
	resp, err := gameResponse(g)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to list actions: %v", err), nil
	}
	return respondJSON(resp), nil
}

func (t *Tools) handleLegalActions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, errRes := t.game(request)
	if errRes != nil {
		return errRes, nil
	}
	acts, err := g.LegalActions()
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to list actions: %v", err), nil
	}
	if acts == nil {
		acts = []game.ActionView{}
	}
	return respondJSON(acts), nil
}

func (t *Tools) handleApplyAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, errRes := t.game(request)
	if errRes != nil {
		return errRes, nil
	}
	index := request.GetInt("index", -1)
	if _, err := g.ApplyAction(index); err != nil {
		return mcp.NewToolResultErrorf("Action rejected: %v", err), nil
	}
	resp, err := gameResponse(g)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to list actions: %v", err), nil
	}
	return respondJSON(resp), nil
}

func (t *Tools) handleBestAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, errRes := t.game(request)
	if errRes != nil {
		return errRes, nil
	}
	if !request.GetBool("play", false) {
		best, res, err := g.BestAction()
		if err != nil {
			return mcp.NewToolResultErrorf("Search failed: %v", err), nil
		}
		return respondJSON(AdviceResponse{Action: best, Score: res.Score, Expanded: res.Expanded, Created: res.Created}), nil
	}

	// Search and apply in one call; a separate apply could race another client.
	played, res, err := g.PlayBest()
	if err != nil {
		return mcp.NewToolResultErrorf("Search failed: %v", err), nil
	}
	advice := AdviceResponse{Action: played, Score: res.Score, Expanded: res.Expanded, Created: res.Created}
	if advice.Played, err = gameResponse(g); err != nil {
		return mcp.NewToolResultErrorf("Failed to list actions: %v", err), nil
	}
	return respondJSON(advice), nil
}

func (t *Tools) handleLoadState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to read state: %v", err), nil
	}
	snap, err := replay.Decode(data, t.Env, t.Checksum)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to load state: %v", err), nil
	}
	g := game.ResumeFridayGame(t.Env, snap.State, engine.ReplayRand(snap.Seed, snap.Count))
	t.Log.WithFields(logrus.Fields{"game": g.ID.String(), "path": path, "seed": snap.Seed, "rngCount": snap.Count}).Info("MCP game loaded")
	return t.register(g), nil
}

func (t *Tools) handleSaveState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, errRes := t.game(request)
	if errRes != nil {
		return errRes, nil
	}
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	state, count := g.Snapshot()
	snap := replay.Snapshot{State: state, Seed: g.Seed, Count: count, Checksum: t.Checksum}

	data, err := replay.Encode(snap)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to encode state: %v", err), nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return mcp.NewToolResultErrorf("Failed to write state: %v", err), nil
	}
	return mcp.NewToolResultText("Saved " + path), nil
}

func (t *Tools) handleAbilityHelp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := engine.ParseAbility(request.GetString("ability", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("%v", err), nil
	}
	help := game.AbilityHelp(a)
	if help == "" {
		help = "No ability."
	}
	return mcp.NewToolResultText(a.String() + ": " + help), nil
}
