package webbridge

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry is the ordered set of handlers plugged into a bridge.
//
// Registration order is significant: state contributions are merged in this
// order (later handlers win on key collisions), actions are dispatched in this
// order, and configured extensions are installed in this order.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler
	byName   map[string]Handler

	// OnPanic is called with the recovered error when a handler callback
	// panics. The default is a no-op; the bridge installs a logging hook.
	OnPanic func(err *HandlerError)
}

// NewRegistry creates a registry holding the given handlers.
func NewRegistry(handlers ...Handler) *Registry {
	reg := &Registry{
		byName: make(map[string]Handler),
	}
	reg.Add(handlers...)
	return reg
}

// Add registers handlers after the ones already present.
// Panics if a handler is nil, has an empty name, or reuses a name.
func (reg *Registry) Add(handlers ...Handler) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, h := range handlers {
		reg.registerHandler(h)
	}
}

func (reg *Registry) registerHandler(h Handler) {
	if h == nil {
		panic("webbridge: nil handler")
	}
	name := h.Name()
	if name == "" {
		panic(fmt.Sprintf("webbridge: handler %T has an empty name", h))
	}
	if _, exists := reg.byName[name]; exists {
		panic(fmt.Sprintf("webbridge: handler name collision for %q", name))
	}
	reg.byName[name] = h
	reg.handlers = append(reg.handlers, h)
}

// Handlers returns the registered handlers in registration order.
func (reg *Registry) Handlers() []Handler {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]Handler, len(reg.handlers))
	copy(out, reg.handlers)
	return out
}

// Get returns the handler registered under name.
func (reg *Registry) Get(name string) (Handler, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	h, ok := reg.byName[name]
	return h, ok
}

// Len returns the number of registered handlers.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.handlers)
}

// Filter returns a new registry restricted to the allowed names, keeping
// registration order. An empty allow-list returns a copy of the registry.
// Allowed names that match no handler are reported as warnings.
func (reg *Registry) Filter(allowed []string) (*Registry, []*UnknownCapabilityError) {
	handlers := reg.Handlers()
	out := &Registry{byName: make(map[string]Handler), OnPanic: reg.OnPanic}

	if len(allowed) == 0 {
		out.Add(handlers...)
		return out, nil
	}

	allow := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		if name != "" {
			allow[name] = true
		}
	}

	for _, h := range handlers {
		if allow[h.Name()] {
			out.Add(h)
			delete(allow, h.Name())
		}
	}

	var warnings []*UnknownCapabilityError
	for _, name := range allowed {
		if allow[name] {
			warnings = append(warnings, &UnknownCapabilityError{Name: name, Reason: "allow-listed but not registered"})
			delete(allow, name)
		}
	}
	return out, warnings
}

// Extensions builds the extensions the handlers install for the given host
// configuration, flattened in registration order.
//
// A handler without a configuration entry is inert. Configuration entries for
// unregistered handlers, or for handlers that cannot provide extensions, are
// skipped and reported as warnings.
func (reg *Registry) Extensions(cfg ExtensionConfigMap) ([]Extension, []*UnknownCapabilityError) {
	handlers := reg.Handlers()

	var (
		out      []Extension
		warnings []*UnknownCapabilityError
		matched  = make(map[string]bool, len(cfg))
	)

	for _, h := range handlers {
		entry, ok := cfg[h.Name()]
		if !ok {
			continue
		}
		matched[h.Name()] = true

		ep, ok := asExtensionProvider(h)
		if !ok {
			warnings = append(warnings, &UnknownCapabilityError{Name: h.Name(), Reason: "configured but provides no extensions"})
			continue
		}
		out = append(out, reg.configure(ep, entry)...)
	}

	for _, name := range sortedKeys(cfg) {
		if !matched[name] {
			warnings = append(warnings, &UnknownCapabilityError{Name: name, Reason: "configured but not registered"})
		}
	}
	return out, warnings
}

func (reg *Registry) configure(ep ExtensionProvider, entry ExtensionConfig) (exts []Extension) {
	defer reg.recoverHandler(ep.Name(), "ConfigureExtensions")
	for _, ext := range ep.ConfigureExtensions(entry.OptionsConfig, entry.ExtendConfig) {
		if ext != nil {
			exts = append(exts, ext)
		}
	}
	return exts
}

// State folds every StateContributor's output into one BridgeState, in
// registration order. A contributor that panics contributes nothing.
func (reg *Registry) State(ed Editor) BridgeState {
	state := make(BridgeState)
	for _, h := range reg.Handlers() {
		sc, ok := asStateContributor(h)
		if !ok {
			continue
		}
		state.Merge(reg.contribute(sc, ed))
	}
	return state
}

func (reg *Registry) contribute(sc StateContributor, ed Editor) BridgeState {
	defer reg.recoverHandler(sc.Name(), "ExtendEditorState")
	return sc.ExtendEditorState(ed)
}

// Dispatch hands an action payload to every ActionHandler in registration
// order. A handler that panics does not prevent dispatch to the rest.
// It returns the number of handlers invoked.
func (reg *Registry) Dispatch(ed Editor, action json.RawMessage, send Sender) int {
	n := 0
	for _, h := range reg.Handlers() {
		ah, ok := asActionHandler(h)
		if !ok {
			continue
		}
		n++
		reg.react(ah, ed, action, send)
	}
	return n
}

func (reg *Registry) react(ah ActionHandler, ed Editor, action json.RawMessage, send Sender) {
	defer reg.recoverHandler(ah.Name(), "OnBridgeMessage")
	ah.OnBridgeMessage(ed, action, send)
}

func (reg *Registry) recoverHandler(name, op string) {
	r := recover()
	if r == nil {
		return
	}
	if reg.OnPanic != nil {
		reg.OnPanic(&HandlerError{Handler: name, Op: op, Value: r})
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
