package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-matches/internal/wire"
	"github.com/rocketscienceinc/tictactoe-matches/transport/response"
)

const (
	actionEnter   = "match:enter"
	actionGet     = "match:get"
	actionPlay    = "match:play"
	actionForfeit = "match:forfeit"
	actionCancel  = "match:cancel"
	actionUnknown = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload carries the arguments of every action; each action reads the fields it needs.
type Payload struct {
	MatchType  string `json:"matchType,omitempty"`
	MatchID    string `json:"matchId,omitempty"`
	Move       string `json:"move,omitempty"`
	Version    *int64 `json:"version,omitempty"`
	MinVersion *int64 `json:"minVersion,omitempty"`
}

type ResponsePayload struct {
	Match *wire.Match     `json:"match,omitempty"`
	Error *response.Error `json:"error,omitempty"`
}

type Response struct {
	Action  string          `json:"action"`
	Payload ResponsePayload `json:"payload"`
}
