package webbridge

import (
	"strings"
	"sync"

	"github.com/pthm/webbridge/lib/debounce"
)

// TestEditor is an in-memory Editor for tests and the development server.
//
// It understands the engine commands used by the bundled handlers:
//
//	setContent(html string)   replaces the document
//	setEditable(bool)         toggles editability
//	focus / blur              moves focus
//	toggleMark(name string)   toggles an active mark
//
// Every command is recorded, whether understood or not.
type TestEditor struct {
	mu       sync.Mutex
	content  string
	editable bool
	focused  bool
	active   map[string]bool
	commands []TestCommand
}

// TestCommand is one recorded Command call.
type TestCommand struct {
	Name string
	Args []any
}

// NewTestEditor creates an editable editor with the given HTML.
func NewTestEditor(html string) *TestEditor {
	return &TestEditor{
		content:  html,
		editable: true,
		active:   make(map[string]bool),
	}
}

// HTML implements Editor.
func (e *TestEditor) HTML() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

// IsEditable implements Editor.
func (e *TestEditor) IsEditable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editable
}

// IsFocused implements Editor.
func (e *TestEditor) IsFocused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focused
}

// IsActive implements Editor.
func (e *TestEditor) IsActive(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active[name]
}

// SetActive marks name as active or inactive.
func (e *TestEditor) SetActive(name string, active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active[name] = active
}

// Command implements Editor.
func (e *TestEditor) Command(name string, args ...any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.commands = append(e.commands, TestCommand{Name: name, Args: args})

	switch name {
	case "setContent":
		if len(args) == 1 {
			if html, ok := args[0].(string); ok {
				e.content = html
				return true
			}
		}
	case "setEditable":
		if len(args) == 1 {
			if v, ok := args[0].(bool); ok {
				e.editable = v
				return true
			}
		}
	case "focus":
		e.focused = true
		return true
	case "blur":
		e.focused = false
		return true
	case "toggleMark":
		if len(args) == 1 {
			if mark, ok := args[0].(string); ok {
				e.active[mark] = !e.active[mark]
				return true
			}
		}
	}
	return false
}

// Commands returns the recorded commands in call order.
func (e *TestEditor) Commands() []TestCommand {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]TestCommand, len(e.commands))
	copy(out, e.commands)
	return out
}

// Recorder is a Transport that keeps every message the bridge sends.
type Recorder struct {
	mu       sync.Mutex
	encoder  *Encoder
	messages []Message
	raw      []string
}

// NewRecorder creates a recorder decoding with encoder (JSON when nil).
func NewRecorder(encoder *Encoder) *Recorder {
	if encoder == nil {
		encoder = DefaultEncoder()
	}
	return &Recorder{encoder: encoder}
}

// PostMessage implements Transport.
func (r *Recorder) PostMessage(message string) error {
	m, err := r.encoder.Decode(message)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	r.raw = append(r.raw, message)
	return nil
}

// Messages returns every recorded message in send order.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Raw returns the encoded transport strings in send order.
func (r *Recorder) Raw() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.raw))
	copy(out, r.raw)
	return out
}

// Types returns the type of every recorded message in send order.
func (r *Recorder) Types() []MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]MessageType, len(r.messages))
	for i, m := range r.messages {
		out[i] = m.Type
	}
	return out
}

// OfType returns the recorded messages of the given type.
func (r *Recorder) OfType(typ MessageType) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Message
	for _, m := range r.messages {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

// Count returns the number of recorded messages of the given type.
func (r *Recorder) Count(typ MessageType) int {
	return len(r.OfType(typ))
}

// Last returns the most recent message of the given type.
func (r *Recorder) Last(typ MessageType) (Message, bool) {
	msgs := r.OfType(typ)
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// LastState decodes the most recent state update.
func (r *Recorder) LastState() (BridgeState, bool) {
	m, ok := r.Last(TypeStateUpdate)
	if !ok {
		return nil, false
	}
	var state BridgeState
	if err := m.DecodePayload(&state); err != nil {
		return nil, false
	}
	return state, true
}

// Reset forgets every recorded message.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
	r.raw = nil
}

// TestHarness wires a Bridge to a TestEditor, a Recorder and a manual clock,
// so tests control exactly when debounced state is sent.
//
//	h := webbridge.NewTestHarness(reg, webbridge.DefaultEnv())
//	h.Start()
//	h.PostAction("1", map[string]any{"type": "toggle-bold"})
//	h.Settle()
//	state, _ := h.Recorder.LastState()
type TestHarness struct {
	Bridge   *Bridge
	Editor   *TestEditor
	Recorder *Recorder
	Clock    *debounce.ManualClock
}

// NewTestHarness builds a bridge with a recorder transport and a manual
// clock. Extra options are applied after those defaults.
func NewTestHarness(reg *Registry, e Env, opts ...Option) *TestHarness {
	clock := debounce.NewManualClock()
	rec := NewRecorder(nil)

	all := append([]Option{
		WithTransport(rec),
		WithClock(clock),
		WithLogger(NopLogger()),
	}, opts...)

	b, err := New(reg, e, all...)
	if err != nil {
		panic("webbridge: test harness: " + err.Error())
	}

	return &TestHarness{
		Bridge:   b,
		Editor:   NewTestEditor(e.InitialContent),
		Recorder: rec,
		Clock:    clock,
	}
}

// Start creates and mounts the editor, the way an engine binding would.
func (h *TestHarness) Start() {
	h.Editor.mu.Lock()
	h.Editor.editable = h.Bridge.Env().Editable
	h.Editor.mu.Unlock()

	h.Bridge.OnCreate(h.Editor)
	h.Bridge.Mount(h.Editor)
}

// Stop unmounts the bridge.
func (h *TestHarness) Stop() {
	h.Bridge.Unmount()
}

// Edit replaces the editor content and fires the update callbacks, as if the
// user typed.
func (h *TestHarness) Edit(html string) {
	h.Editor.Command("setContent", html)
	h.Bridge.OnUpdate(h.Editor)
}

// Settle advances the clock past the debounce window.
func (h *TestHarness) Settle() {
	h.Clock.Advance(h.Bridge.emitter.debounce.Delay())
}

// PostAction delivers an action with the given ID to the bridge's window
// target, as the host would.
func (h *TestHarness) PostAction(id string, payload any) error {
	return PostAction(h.Bridge.Window(), h.Bridge.listener.encoder, id, payload)
}

// PostAction encodes an action and dispatches it on target.
func PostAction(target *EventTarget, encoder *Encoder, id string, payload any) error {
	if encoder == nil {
		encoder = DefaultEncoder()
	}
	m, err := NewMessage(TypeAction, payload)
	if err != nil {
		return err
	}
	m.ID = id
	encoded, err := encoder.Encode(m)
	if err != nil {
		return err
	}
	return target.PostMessage(encoded)
}

// HTMLContains reports whether the editor's document contains substr.
func (e *TestEditor) HTMLContains(substr string) bool {
	return strings.Contains(e.HTML(), substr)
}
