package webbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeLayout struct {
	mu      sync.Mutex
	observe func(float64)
	resets  int
	stopped int
}

func (l *fakeLayout) ObserveHeight(fn func(float64)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observe = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.stopped++
		l.observe = nil
	}
}

func (l *fakeLayout) ResetScroll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resets++
}

func (l *fakeLayout) resize(h float64) {
	l.mu.Lock()
	fn := l.observe
	l.mu.Unlock()
	if fn != nil {
		fn(h)
	}
}

func extensionNames(exts []Extension) string {
	names := make([]string, len(exts))
	for i, ext := range exts {
		names[i] = ext.ExtensionName()
	}
	return strings.Join(names, ",")
}

func TestBridge_ReadyAndState(t *testing.T) {
	reg := NewRegistry(&HandlerFuncs{
		HandlerName: "content",
		State: func(ed Editor) BridgeState {
			return BridgeState{"html": ed.HTML()}
		},
	})
	e := DefaultEnv()
	e.InitialContent = "<p>hi</p>"

	h := NewTestHarness(reg, e)
	h.Start()
	defer h.Stop()

	if got := h.Recorder.Types(); len(got) != 1 || got[0] != TypeEditorReady {
		t.Fatalf("types = %v, want [editor-ready]", got)
	}
	if h.Bridge.EditorOptions().Content != "<p>hi</p>" {
		t.Errorf("EditorOptions.Content = %q", h.Bridge.EditorOptions().Content)
	}
	if got := extensionNames(h.Bridge.Extensions()); got != "highlightSelection" {
		t.Errorf("extensions = %s, want highlightSelection", got)
	}

	h.Settle()
	state, ok := h.Recorder.LastState()
	if !ok || state["html"] != "<p>hi</p>" {
		t.Errorf("state = %v", state)
	}
}

func TestBridge_UpdateSendsContentThenState(t *testing.T) {
	reg := NewRegistry(&HandlerFuncs{
		HandlerName: "content",
		State:       func(ed Editor) BridgeState { return BridgeState{"html": ed.HTML()} },
	})
	h := NewTestHarness(reg, DefaultEnv())
	h.Start()
	defer h.Stop()
	h.Settle()
	h.Recorder.Reset()

	h.Edit("<p>a</p>")
	h.Edit("<p>ab</p>")
	h.Bridge.OnSelectionUpdate(h.Editor)
	h.Bridge.OnTransaction(h.Editor)

	if h.Recorder.Count(TypeContentUpdate) != 2 {
		t.Errorf("content updates = %d, want 2", h.Recorder.Count(TypeContentUpdate))
	}
	if h.Recorder.Count(TypeStateUpdate) != 0 {
		t.Fatal("state sent before the debounce window")
	}

	h.Settle()
	if h.Recorder.Count(TypeStateUpdate) != 1 {
		t.Errorf("state updates = %d, want 1", h.Recorder.Count(TypeStateUpdate))
	}
	state, _ := h.Recorder.LastState()
	if state["html"] != "<p>ab</p>" {
		t.Errorf("state html = %v, want latest", state["html"])
	}
}

func TestBridge_DuplicateActionDispatchedOnce(t *testing.T) {
	var got []string
	reg := NewRegistry(&HandlerFuncs{
		HandlerName: "spy",
		OnMessage: func(_ Editor, action json.RawMessage, _ Sender) {
			got = append(got, string(action))
		},
	})
	h := NewTestHarness(reg, DefaultEnv())
	h.Start()
	defer h.Stop()

	action := map[string]string{"type": "toggle-bold"}
	h.PostAction("42", action)
	PostAction(h.Bridge.Document(), nil, "42", action)

	if len(got) != 1 {
		t.Fatalf("dispatched %d times, want 1", len(got))
	}
	if got[0] != `{"type":"toggle-bold"}` {
		t.Errorf("action = %s", got[0])
	}
}

func TestBridge_HandlerReply(t *testing.T) {
	reg := NewRegistry(&HandlerFuncs{
		HandlerName: "content",
		OnMessage: func(ed Editor, _ json.RawMessage, send Sender) {
			m, _ := NewMessage("send-content", ed.HTML())
			send.Send(m)
		},
	})
	e := DefaultEnv()
	e.InitialContent = "<p>x</p>"
	h := NewTestHarness(reg, e)
	h.Start()
	defer h.Stop()

	h.PostAction("1", map[string]string{"type": "get-content"})

	m, ok := h.Recorder.Last("send-content")
	if !ok || string(m.Payload) != `"<p>x</p>"` {
		t.Errorf("reply = %+v", m)
	}
}

func TestBridge_ReactionReadsStateAndSchedulesUpdate(t *testing.T) {
	var b *Bridge
	var seen BridgeState
	reg := NewRegistry(&HandlerFuncs{
		HandlerName: "counter",
		State:       func(ed Editor) BridgeState { return BridgeState{"html": ed.HTML()} },
		OnMessage: func(ed Editor, _ json.RawMessage, _ Sender) {
			ed.Command("setContent", "<p>changed</p>")
			seen = b.Registry().State(ed)
			b.OnTransaction(ed)
		},
	})
	h := NewTestHarness(reg, DefaultEnv())
	b = h.Bridge
	h.Start()
	defer h.Stop()
	h.Settle()
	h.Recorder.Reset()

	done := make(chan struct{})
	go func() {
		h.PostAction("1", map[string]string{"type": "change"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaction deadlocked")
	}

	if seen["html"] != "<p>changed</p>" {
		t.Errorf("state seen by reaction = %v", seen)
	}
	h.Settle()
	state, ok := h.Recorder.LastState()
	if !ok || state["html"] != "<p>changed</p>" {
		t.Errorf("state update = %v, ok=%v", state, ok)
	}
}

func TestBridge_Extensions(t *testing.T) {
	provider := func(name string) *HandlerFuncs {
		return &HandlerFuncs{
			HandlerName: name,
			Configure: func(json.RawMessage, json.RawMessage) []Extension {
				return []Extension{NamedExtension{ExtName: name}}
			},
		}
	}
	reg := NewRegistry(provider("bold"), provider("italic"), provider("underline"))

	tests := []struct {
		name         string
		env          Env
		static       []Extension
		want         string
		wantWarnings int
	}{
		{
			name: "configured in registration order",
			env:  Env{ExtensionConfigMap: `{"italic":{},"bold":{}}`},
			want: "highlightSelection,bold,italic",
		},
		{
			name: "highlight disabled",
			env:  Env{ExtensionConfigMap: `{"bold":{}}`, DisableColorHighlight: true},
			want: "bold",
		},
		{
			name:   "static after configured",
			env:    Env{ExtensionConfigMap: `{"underline":{}}`},
			static: []Extension{NamedExtension{ExtName: "placeholder"}},
			want:   "highlightSelection,underline,placeholder",
		},
		{
			name:         "unknown name warns",
			env:          Env{ExtensionConfigMap: `{"bold":{},"heading":{}}`, DisableColorHighlight: true},
			want:         "bold",
			wantWarnings: 1,
		},
		{
			name:         "malformed config falls back to empty",
			env:          Env{ExtensionConfigMap: `{nope`},
			want:         "highlightSelection",
			wantWarnings: 1,
		},
		{
			name:         "bad entry skipped, others configured",
			env:          Env{ExtensionConfigMap: `{"bold":{"optionsConfig":{}},"italic":true}`, DisableColorHighlight: true},
			want:         "bold",
			wantWarnings: 1,
		},
		{
			name:         "allow-list",
			env:          Env{ExtensionConfigMap: `{"bold":{},"italic":{}}`, AllowedHandlers: []string{"italic", "strike"}, DisableColorHighlight: true},
			want:         "italic",
			wantWarnings: 2, // strike not registered, bold configured but filtered out
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(reg, tt.env, WithStaticExtensions(tt.static...), WithLogger(NopLogger()))
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if got := extensionNames(b.Extensions()); got != tt.want {
				t.Errorf("extensions = %s, want %s", got, tt.want)
			}
			if got := len(b.Warnings()); got != tt.wantWarnings {
				t.Errorf("warnings = %v, want %d", b.Warnings(), tt.wantWarnings)
			}
		})
	}
}

func TestBridge_AllowListFiltersHandlers(t *testing.T) {
	var called []string
	spy := func(name string) *HandlerFuncs {
		return &HandlerFuncs{
			HandlerName: name,
			State:       func(Editor) BridgeState { return BridgeState{name: true} },
			OnMessage:   func(Editor, json.RawMessage, Sender) { called = append(called, name) },
		}
	}

	e := DefaultEnv()
	e.AllowedHandlers = []string{"b"}
	h := NewTestHarness(NewRegistry(spy("a"), spy("b")), e)
	h.Start()
	defer h.Stop()

	h.PostAction("1", 1)
	h.Settle()

	if strings.Join(called, ",") != "b" {
		t.Errorf("called = %v, want [b]", called)
	}
	state, _ := h.Recorder.LastState()
	if _, ok := state["a"]; ok {
		t.Errorf("filtered handler contributed state: %v", state)
	}
	if h.Bridge.Registry().Len() != 1 {
		t.Errorf("effective registry has %d handlers", h.Bridge.Registry().Len())
	}
}

func TestBridge_DynamicHeight(t *testing.T) {
	layout := &fakeLayout{}
	e := DefaultEnv()
	e.DynamicHeight = true

	h := NewTestHarness(NewRegistry(), e, WithLayout(layout))
	h.Start()

	layout.resize(320)

	msgs := h.Recorder.OfType(TypeDocumentHeight)
	if len(msgs) != 1 {
		t.Fatalf("height messages = %d, want 1", len(msgs))
	}
	var height float64
	if err := msgs[0].DecodePayload(&height); err != nil || height != 320 {
		t.Errorf("height = %v (err %v), want 320", height, err)
	}
	if layout.resets != 1 {
		t.Errorf("scroll resets = %d, want 1", layout.resets)
	}

	// mounting again does not connect a second observer
	h.Bridge.Mount(h.Editor)
	layout.resize(400)
	if got := h.Recorder.Count(TypeDocumentHeight); got != 2 {
		t.Errorf("height messages = %d, want 2", got)
	}

	h.Stop()
	if layout.stopped != 1 {
		t.Errorf("observer stopped %d times, want 1", layout.stopped)
	}
	layout.resize(500)
	if got := h.Recorder.Count(TypeDocumentHeight); got != 2 {
		t.Errorf("height sent after unmount")
	}
}

func TestBridge_DynamicHeightDisabled(t *testing.T) {
	layout := &fakeLayout{}
	h := NewTestHarness(NewRegistry(), DefaultEnv(), WithLayout(layout))
	h.Start()
	defer h.Stop()

	layout.resize(320)
	if h.Recorder.Count(TypeDocumentHeight) != 0 {
		t.Error("height reported without DynamicHeight")
	}
}

func TestBridge_UnmountStopsEverything(t *testing.T) {
	calls := 0
	reg := NewRegistry(&HandlerFuncs{
		HandlerName: "spy",
		State:       func(Editor) BridgeState { return BridgeState{} },
		OnMessage:   func(Editor, json.RawMessage, Sender) { calls++ },
	})
	h := NewTestHarness(reg, DefaultEnv())
	h.Start()

	h.Stop()
	h.Settle()

	if h.Recorder.Count(TypeStateUpdate) != 0 {
		t.Error("pending state update survived unmount")
	}
	if h.Bridge.Window().Listeners() != 0 || h.Bridge.Document().Listeners() != 0 {
		t.Error("listeners still attached after unmount")
	}
	h.PostAction("1", 1)
	if calls != 0 {
		t.Error("action dispatched after unmount")
	}
	if h.Bridge.Listener().State() != Unsubscribed {
		t.Errorf("listener state = %s", h.Bridge.Listener().State())
	}
}

func TestBridge_Standalone(t *testing.T) {
	b, err := New(NewRegistry(), DefaultEnv(), WithLogger(NopLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ed := NewTestEditor("")
	b.OnCreate(ed)
	b.Mount(ed)
	b.OnUpdate(ed)
	b.FlushState()
	b.Unmount()

	if b.Outbound().Available() {
		t.Error("standalone bridge should have no transport")
	}
}

func TestBridge_InvalidPlatform(t *testing.T) {
	_, err := New(NewRegistry(), Env{Platform: "symbian"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestBridge_HandlerPanicLogged(t *testing.T) {
	logger := &recordingLogger{}
	reg := NewRegistry(&HandlerFuncs{
		HandlerName: "broken",
		OnMessage:   func(Editor, json.RawMessage, Sender) { panic("boom") },
	})
	h := NewTestHarness(reg, DefaultEnv(), WithLogger(logger))
	h.Start()
	defer h.Stop()

	h.PostAction("1", 1)
	h.PostAction("2", 2)

	if got := logger.count("error"); got != 2 {
		t.Errorf("error logs = %d, want 2", got)
	}
}

func TestBridge_WarnRecognizesWrappedUnknownCapability(t *testing.T) {
	logger := &recordingLogger{}
	b, err := New(NewRegistry(), DefaultEnv(), WithLogger(logger))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	b.warn(fmt.Errorf("loading: %w", &UnknownCapabilityError{Name: "heading", Reason: "not registered"}))

	if len(logger.lines) != 1 || logger.lines[0] != "warn: webbridge: unknown capability" {
		t.Errorf("logs = %v, want one unknown capability warning", logger.lines)
	}
	if len(b.Warnings()) != 1 {
		t.Errorf("warnings = %v, want 1", b.Warnings())
	}
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+": "+msg)
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.log("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.log("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.log("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.log("error", msg) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if strings.HasPrefix(line, level+":") {
			n++
		}
	}
	return n
}
