package models

import (
	"github.com/pefman/raid-odds/internal/engine"
	"github.com/pefman/raid-odds/internal/game"
)

// ========================= API Requests =========================

// RollRequest asks for one roll of the given dice. Seed 0 means random.
type RollRequest struct {
	Allocation engine.Allocation `json:"allocation"`
	Seed       int64             `json:"seed,omitempty"`
}

type RollResponse struct {
	Allocation engine.Allocation `json:"allocation"`
	Tally      engine.Tally      `json:"tally"`
	Seed       int64             `json:"seed"`
}

type AllocationsResponse struct {
	MaxDice     int                 `json:"max_dice"`
	Allocations []engine.Allocation `json:"allocations"`
}

type ResolveRequest struct {
	Scenario game.Scenario `json:"scenario"`
	Tally    engine.Tally  `json:"tally"`
}

type ResolveResponse struct {
	Outcomes []game.Scenario `json:"outcomes"`
	States   int             `json:"states"`
}

type SimulateRequest struct {
	Scenario game.Scenario `json:"scenario"`
	Trials   int           `json:"trials"`
	Seed     int64         `json:"seed,omitempty"`
}

type RoundRequest struct {
	Scenario   game.Scenario     `json:"scenario"`
	Allocation engine.Allocation `json:"allocation"`
	Seed       int64             `json:"seed,omitempty"`
}

type RoundResponse struct {
	game.Round
	Seed int64 `json:"seed"`
}

// DieInfo describes one die kind's faces for display.
type DieInfo struct {
	Name  string            `json:"name"`
	Faces [][]engine.Symbol `json:"faces"`
}

// ErrorResponse is the body of every non-2xx API answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ========================= WebSocket =========================

// WsMsg is the envelope for every websocket frame.
type WsMsg struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Message types exchanged on /ws.
const (
	MsgRound       = "round"
	MsgSimulate    = "simulate"
	MsgDice        = "dice"
	MsgAllocations = "allocations"
	MsgError       = "error"
)
