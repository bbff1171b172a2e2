package bridges

import (
	"encoding/json"
	"strings"

	"github.com/pthm/webbridge"
)

// Mark returns a handler for an inline mark such as "bold" or "italic".
//
// It toggles the mark on the "toggle-<name>" action, contributes
// "is<Name>Active" to the state, and installs a MarkExtension when the host
// configures it.
func Mark(name string) webbridge.Handler {
	return &markHandler{
		name:     name,
		action:   "toggle-" + name,
		stateKey: "is" + capitalize(name) + "Active",
	}
}

// MarkExtension is the engine extension for a mark, carrying the host's
// configuration fragments unchanged.
type MarkExtension struct {
	Mark    string
	Options json.RawMessage
	Extend  json.RawMessage
}

// ExtensionName implements webbridge.Extension.
func (e MarkExtension) ExtensionName() string {
	return e.Mark
}

type markHandler struct {
	name     string
	action   string
	stateKey string
}

func (h *markHandler) Name() string { return h.name }

func (h *markHandler) ExtendEditorState(ed webbridge.Editor) webbridge.BridgeState {
	return webbridge.BridgeState{h.stateKey: ed.IsActive(h.name)}
}

func (h *markHandler) OnBridgeMessage(ed webbridge.Editor, raw json.RawMessage, _ webbridge.Sender) {
	a, ok := ParseAction(raw)
	if !ok || a.Type != h.action {
		return
	}
	ed.Command("toggleMark", h.name)
}

func (h *markHandler) ConfigureExtensions(optionsConfig, extendConfig json.RawMessage) []webbridge.Extension {
	return []webbridge.Extension{MarkExtension{
		Mark:    h.name,
		Options: optionsConfig,
		Extend:  extendConfig,
	}}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
