// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package events defines the wire-level Event shape shared by the queue,
// catalog, fetcher and event bus: {source, action, payload}, immutable
// once published.
package events

import "github.com/goccy/go-json"

// Event is a single state-change notification. Payload fields are
// component-defined.
type Event struct {
	Source  string `json:"source"`
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

// New constructs an Event. It exists mainly for call-site readability.
func New(source, action string, payload any) Event {
	return Event{Source: source, Action: action, Payload: payload}
}

// Marshaler is implemented by payload types that want control over their
// JSON representation instead of relying on the default struct-tag walk.
type Marshaler interface {
	MarshalEventJSON() ([]byte, error)
}

// MarshalJSON serializes the event, delegating to the payload's
// MarshalEventJSON when it implements Marshaler, and falling back to
// goccy/go-json's generic map/slice/primitive walk otherwise.
func (e Event) MarshalJSON() ([]byte, error) {
	type wire struct {
		Source  string          `json:"source"`
		Action  string          `json:"action"`
		Payload json.RawMessage `json:"payload"`
	}

	var raw json.RawMessage
	var err error
	if m, ok := e.Payload.(Marshaler); ok {
		raw, err = m.MarshalEventJSON()
	} else {
		raw, err = json.Marshal(e.Payload)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(wire{Source: e.Source, Action: e.Action, Payload: raw})
}
