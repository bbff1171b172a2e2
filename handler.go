package webbridge

import "encoding/json"

// Editor is the bridge's view of the rich-text engine.
//
// The engine binding owns the editor; the bridge and handlers only borrow it
// for the duration of a callback. Command applies an engine command (toggle a
// mark, replace content, focus) and reports whether the engine accepted it.
type Editor interface {
	HTML() string
	IsEditable() bool
	IsFocused() bool
	IsActive(name string) bool
	Command(name string, args ...any) bool
}

// Sender delivers messages to the host. Handlers receive the bridge's
// Outbound as a Sender so they can answer actions asynchronously.
type Sender interface {
	Send(m Message)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(m Message)

// Send implements Sender.
func (f SenderFunc) Send(m Message) { f(m) }

// Handler is a capability unit plugged into the bridge.
//
// A handler only needs a name. It declares capabilities by additionally
// implementing any of StateContributor, ActionHandler and ExtensionProvider;
// none of them is required.
type Handler interface {
	Name() string
}

// StateContributor is implemented by handlers that add fields to the state
// sent to the host after editor changes. Returning nil or an empty state
// contributes nothing this round.
type StateContributor interface {
	Handler
	ExtendEditorState(ed Editor) BridgeState
}

// ActionHandler is implemented by handlers that react to host actions.
//
// Every ActionHandler sees every action; the payload is opaque to the bridge
// and handlers ignore actions they do not understand.
type ActionHandler interface {
	Handler
	OnBridgeMessage(ed Editor, action json.RawMessage, send Sender)
}

// ExtensionProvider is implemented by handlers that install editor behavior.
//
// ConfigureExtensions is only called when the host configuration has an entry
// for the handler's name; optionsConfig and extendConfig are that entry's raw
// fragments (either may be empty).
type ExtensionProvider interface {
	Handler
	ConfigureExtensions(optionsConfig, extendConfig json.RawMessage) []Extension
}

// Extension is a behavior installed into the editor engine. The bridge only
// orders and forwards extensions; their meaning belongs to the engine binding.
type Extension interface {
	ExtensionName() string
}

// HandlerFuncs builds a Handler from function fields. A nil field means the
// capability is not declared, so the bridge skips it entirely.
//
//	bold := &webbridge.HandlerFuncs{
//	    HandlerName: "bold",
//	    State: func(ed webbridge.Editor) webbridge.BridgeState {
//	        return webbridge.BridgeState{"isBoldActive": ed.IsActive("bold")}
//	    },
//	}
type HandlerFuncs struct {
	HandlerName string
	State       func(ed Editor) BridgeState
	OnMessage   func(ed Editor, action json.RawMessage, send Sender)
	Configure   func(optionsConfig, extendConfig json.RawMessage) []Extension
}

// Name implements Handler.
func (h *HandlerFuncs) Name() string {
	return h.HandlerName
}

// capability checks used by the registry so nil function fields count as
// undeclared.

func asStateContributor(h Handler) (StateContributor, bool) {
	if f, ok := h.(*HandlerFuncs); ok {
		if f.State == nil {
			return nil, false
		}
		return funcsState{f}, true
	}
	sc, ok := h.(StateContributor)
	return sc, ok
}

func asActionHandler(h Handler) (ActionHandler, bool) {
	if f, ok := h.(*HandlerFuncs); ok {
		if f.OnMessage == nil {
			return nil, false
		}
		return funcsAction{f}, true
	}
	ah, ok := h.(ActionHandler)
	return ah, ok
}

func asExtensionProvider(h Handler) (ExtensionProvider, bool) {
	if f, ok := h.(*HandlerFuncs); ok {
		if f.Configure == nil {
			return nil, false
		}
		return funcsExtensions{f}, true
	}
	ep, ok := h.(ExtensionProvider)
	return ep, ok
}

type funcsState struct{ *HandlerFuncs }

func (f funcsState) ExtendEditorState(ed Editor) BridgeState { return f.State(ed) }

type funcsAction struct{ *HandlerFuncs }

func (f funcsAction) OnBridgeMessage(ed Editor, action json.RawMessage, send Sender) {
	f.OnMessage(ed, action, send)
}

type funcsExtensions struct{ *HandlerFuncs }

func (f funcsExtensions) ConfigureExtensions(optionsConfig, extendConfig json.RawMessage) []Extension {
	return f.Configure(optionsConfig, extendConfig)
}

// NamedExtension is a plain Extension identified only by name, with optional
// options forwarded to the engine binding.
type NamedExtension struct {
	ExtName string
	Options json.RawMessage
}

// ExtensionName implements Extension.
func (e NamedExtension) ExtensionName() string {
	return e.ExtName
}
