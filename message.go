package webbridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/pthm/webbridge/lib/encoding"
)

// MessageType is the kind discriminant of a Message.
type MessageType string

// Message kinds exchanged over the bridge.
//
// Action flows host → document. The remaining kinds flow document → host.
// Kinds not listed here are reserved: the listener ignores them.
const (
	TypeAction         MessageType = "action"
	TypeEditorReady    MessageType = "editor-ready"
	TypeContentUpdate  MessageType = "content-update"
	TypeStateUpdate    MessageType = "state-update"
	TypeDocumentHeight MessageType = "document-height"
)

// Message is the unit exchanged over the transport.
//
// ID is only meaningful for inbound actions, where it is used to drop
// immediate redeliveries. Payload is kind-dependent JSON: the action body for
// TypeAction, a BridgeState for TypeStateUpdate, a number for
// TypeDocumentHeight, and empty for the notification kinds.
type Message struct {
	Type    MessageType     `json:"type" msgpack:"type"`
	ID      string          `json:"id,omitempty" msgpack:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// UnmarshalJSON decodes a message. Hosts may send any JSON value as an action
// id; strings are kept as is, null means no id, and anything else (numbers in
// practice) is kept as its compact JSON text so it still deduplicates.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w struct {
		Type    MessageType     `json:"type"`
		ID      json.RawMessage `json:"id"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	id, err := decodeID(w.ID)
	if err != nil {
		return err
	}
	*m = Message{Type: w.Type, ID: id, Payload: w.Payload}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", err
		}
		return id, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// IDGenerator generates message IDs for NewAction.
// Tests may replace it to get predictable IDs.
var IDGenerator = uuid.NewString

// NewMessage creates a message of the given type with payload marshaled as
// JSON. A nil payload leaves Payload empty.
func NewMessage(typ MessageType, payload any) (Message, error) {
	m := Message{Type: typ}
	if payload == nil {
		return m, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		m.Payload = raw
		return m, nil
	}
	data, err := encoding.MarshalJSON(payload)
	if err != nil {
		return Message{}, fmt.Errorf("webbridge: marshal %s payload: %w", typ, err)
	}
	m.Payload = data
	return m, nil
}

// NewAction creates an action message with a fresh ID.
//
// Hosts written in Go (and tests) use this to drive the document side:
//
//	msg, _ := webbridge.NewAction(map[string]any{"type": "toggle-bold"})
//	encoded, _ := webbridge.DefaultEncoder().Encode(msg)
func NewAction(payload any) (Message, error) {
	m, err := NewMessage(TypeAction, payload)
	if err != nil {
		return Message{}, err
	}
	m.ID = IDGenerator()
	return m, nil
}

// IsAction reports whether m is a host command.
func (m Message) IsAction() bool {
	return m.Type == TypeAction
}

// DecodePayload unmarshals the payload into v.
func (m Message) DecodePayload(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("webbridge: %s message has no payload", m.Type)
	}
	return json.Unmarshal(m.Payload, v)
}

// BridgeState is the consolidated editor state sent to the host.
// Each handler owns the keys it contributes.
type BridgeState map[string]any

// Merge copies every key of other into s, overwriting collisions.
func (s BridgeState) Merge(other BridgeState) BridgeState {
	if s == nil {
		s = make(BridgeState, len(other))
	}
	maps.Copy(s, other)
	return s
}
