// Package bridges provides stock handlers for common editor capabilities.
//
// Host actions handled here share one shape:
//
//	{"type": "toggle-bold"}
//	{"type": "set-content", "payload": "<p>hi</p>"}
//
// Handlers ignore actions whose type they do not own, so any number of them
// can be registered on one bridge.
package bridges

import (
	"encoding/json"

	"github.com/pthm/webbridge"
	"github.com/pthm/webbridge/lib/encoding"
)

// Action is the body of a host action message.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParseAction decodes an action body. Bodies that are not an object with a
// string type yield ok == false.
func ParseAction(raw json.RawMessage) (Action, bool) {
	var a Action
	if len(raw) == 0 {
		return a, false
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return Action{}, false
	}
	return a, a.Type != ""
}

// NewAction builds the host message for an action of the given type.
// A nil payload is omitted.
func NewAction(typ string, payload any) (webbridge.Message, error) {
	a := Action{Type: typ}
	if payload != nil {
		data, err := encoding.MarshalJSON(payload)
		if err != nil {
			return webbridge.Message{}, err
		}
		a.Payload = data
	}
	return webbridge.NewAction(a)
}
