// Package mqtt publishes panel and lifecycle events to an MQTT broker.
// Publisher is implemented by RealPublisher (paho) and FakePublisher.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/rs/xid"
	"github.com/sweeney/x1-panel/internal/panel"
)

// Topic is the MQTT topic for panel events.
const Topic = "printer/x1/panel/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "printer/x1/panel/system"

// Publisher sends events to the broker. Errors are reported to the caller,
// which logs them and carries on.
type Publisher interface {
	Publish(event Event) error
	PublishSystem(event SystemEvent) error
	Close() error
}

// ConnectionStatus is implemented by publishers that know whether the
// broker link is up.
type ConnectionStatus interface {
	IsConnected() bool
}

// Event is a panel event stamped with wall-clock time and a unique id.
type Event struct {
	ID        string
	Timestamp time.Time
	panel.Event
}

// NewEvent stamps e with ts and a fresh id.
func NewEvent(ts time.Time, e panel.Event) Event {
	return Event{ID: xid.New().String(), Timestamp: ts, Event: e}
}

// SystemEvent is a daemon lifecycle event: STARTUP, HEARTBEAT, SHUTDOWN,
// RECONNECTED or the OFFLINE will.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // signal name, SHUTDOWN only
	RawPayload []byte // full status snapshot; sent as-is when set
	Retained   bool
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Panel PanelPayload `json:"panel"`
}

// PanelPayload contains the panel event details.
type PanelPayload struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Button    string `json:"button,omitempty"`
	From      string `json:"from"`
	To        string `json:"to"`
	Cursor    int    `json:"cursor"`
}

// FormatPayload creates the JSON payload for a panel event.
func FormatPayload(event Event) ([]byte, error) {
	p := PanelPayload{
		ID:        event.ID,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		From:      string(event.From),
		To:        string(event.To),
		Cursor:    event.Cursor,
	}
	if event.Type == panel.EventButton {
		p.Button = event.Button.String()
	}
	return json.Marshal(Payload{Panel: p})
}

// SystemPayload is the minimal system message used when no status
// snapshot is attached (the will, for one).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload encodes a system event, or returns RawPayload
// untouched when the caller already built one.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	return json.Marshal(SystemPayload{System: SystemPayloadInner{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     event.Event,
		Reason:    event.Reason,
	}})
}
