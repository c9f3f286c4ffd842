package websocket

import (
	"encoding/json"

	"github.com/pinpanclub/pingpong-backend/internal/entity"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload carries the request and response fields of every action.
type Payload struct {
	MatchID       string        `json:"match_id,omitempty"`
	Player        string        `json:"player,omitempty"`
	PointType     string        `json:"type,omitempty"`
	Match         *entity.Match `json:"match,omitempty"`
	Session       string        `json:"session,omitempty"`
	SetWon        bool          `json:"set_won,omitempty"`
	MatchFinished bool          `json:"match_finished,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// frame represents a WebSocket frame and its metadata.
type frame struct {
	isFin   bool   // final fragment of the message
	opCode  byte   // frame type, 1 for text
	length  uint64 // payload length
	payload []byte // frame payload
}
