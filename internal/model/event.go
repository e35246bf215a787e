package model

import "time"

// Event types flowing through the bridge.
const (
	EventTrack         = "track"
	EventStatus        = "status"
	EventPlayerAdded   = "player_added"
	EventPlayerRemoved = "player_removed"
	EventButton        = "button"
	EventCommand       = "command"
	EventMessage       = "message"
)

// Event is a single occurrence reported by one of the input sources or
// produced by the bridge in reaction to one.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	Player  string    `json:"player,omitempty"`
	Track   *Track    `json:"track,omitempty"`
	Status  string    `json:"status,omitempty"`
	Command Command   `json:"command,omitempty"`
	Button  string    `json:"button,omitempty"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// NewEvent returns an event of the given type stamped with a fresh ID and
// the current time.
func NewEvent(typ string) Event {
	return Event{
		ID:   NewID(),
		Type: typ,
		Time: time.Now().UTC(),
	}
}
