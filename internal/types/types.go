package types

import (
	"time"

	"github.com/kramislife/brick-draft-sub001/internal/engine"
)

// ClientMessage is one inbound websocket frame. Ready and SubmitPick
// come from participants; ForceStart, SetTimer, ForceSkip and Abort
// are admin controls.
type ClientMessage struct {
	Type        string `json:"type"`
	QueueNumber int    `json:"queue_number,omitempty"`
	ItemID      string `json:"item_id,omitempty"`
	Seconds     int    `json:"seconds,omitempty"`
}

type ServerMessage struct {
	Type     string         `json:"type"` // "StateSnapshot" | "Error"
	Version  int            `json:"version,omitempty"`
	Events   []engine.Event `json:"events,omitempty"`
	Deadline *time.Time     `json:"deadline,omitempty"`
	State    *engine.State  `json:"state,omitempty"`
	Error    string         `json:"error,omitempty"`
}
