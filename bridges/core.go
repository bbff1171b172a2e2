package bridges

import (
	"encoding/json"

	"github.com/pthm/webbridge"
)

// Action types handled by Core.
const (
	ActionSetContent  = "set-content"
	ActionSetEditable = "set-editable"
	ActionFocus       = "focus"
	ActionBlur        = "blur"
	ActionGetContent  = "get-content"
)

// TypeSendContent is the reply to a get-content action. Its payload is the
// editor HTML as a JSON string.
const TypeSendContent webbridge.MessageType = "send-content"

// CoreName is the registry name of the Core handler.
const CoreName = "core"

// Core returns the handler for the editor basics: content, editability and
// focus. It contributes isEditable and isFocused to the state.
func Core() webbridge.Handler {
	return coreHandler{}
}

type coreHandler struct{}

func (coreHandler) Name() string { return CoreName }

func (coreHandler) ExtendEditorState(ed webbridge.Editor) webbridge.BridgeState {
	return webbridge.BridgeState{
		"isEditable": ed.IsEditable(),
		"isFocused":  ed.IsFocused(),
	}
}

func (coreHandler) OnBridgeMessage(ed webbridge.Editor, raw json.RawMessage, send webbridge.Sender) {
	a, ok := ParseAction(raw)
	if !ok {
		return
	}

	switch a.Type {
	case ActionSetContent:
		var html string
		if json.Unmarshal(a.Payload, &html) == nil {
			ed.Command("setContent", html)
		}
	case ActionSetEditable:
		var editable bool
		if json.Unmarshal(a.Payload, &editable) == nil {
			ed.Command("setEditable", editable)
		}
	case ActionFocus:
		ed.Command("focus")
	case ActionBlur:
		ed.Command("blur")
	case ActionGetContent:
		m, err := webbridge.NewMessage(TypeSendContent, ed.HTML())
		if err != nil {
			return
		}
		send.Send(m)
	}
}
