package webbridge

import (
	"testing"
)

func TestTestEditor_Commands(t *testing.T) {
	ed := NewTestEditor("<p>a</p>")

	tests := []struct {
		name string
		args []any
		want bool
	}{
		{"setContent", []any{"<p>b</p>"}, true},
		{"setContent", []any{42}, false},
		{"setEditable", []any{false}, true},
		{"focus", nil, true},
		{"toggleMark", []any{"bold"}, true},
		{"insertTable", nil, false},
	}

	for _, tt := range tests {
		if got := ed.Command(tt.name, tt.args...); got != tt.want {
			t.Errorf("Command(%s, %v) = %v, want %v", tt.name, tt.args, got, tt.want)
		}
	}

	if ed.HTML() != "<p>b</p>" {
		t.Errorf("HTML = %q", ed.HTML())
	}
	if ed.IsEditable() {
		t.Error("expected read-only")
	}
	if !ed.IsFocused() {
		t.Error("expected focus")
	}
	if !ed.IsActive("bold") {
		t.Error("expected bold active")
	}
	if !ed.HTMLContains("<p>b") {
		t.Error("HTMLContains failed")
	}
	if got := len(ed.Commands()); got != len(tests) {
		t.Errorf("recorded %d commands, want %d", got, len(tests))
	}

	ed.Command("toggleMark", "bold")
	ed.SetActive("italic", true)
	if ed.IsActive("bold") || !ed.IsActive("italic") {
		t.Error("mark toggling is wrong")
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder(nil)

	if err := rec.PostMessage("not json"); !IsMalformedMessage(err) {
		t.Errorf("err = %v, want malformed", err)
	}

	rec.PostMessage(`{"type":"editor-ready"}`)
	rec.PostMessage(`{"type":"state-update","payload":{"a":1}}`)
	rec.PostMessage(`{"type":"state-update","payload":{"a":2}}`)

	if len(rec.Messages()) != 3 || len(rec.Raw()) != 3 {
		t.Fatalf("messages = %v", rec.Messages())
	}
	if rec.Count(TypeStateUpdate) != 2 {
		t.Errorf("Count = %d, want 2", rec.Count(TypeStateUpdate))
	}
	state, ok := rec.LastState()
	if !ok || state["a"] != float64(2) {
		t.Errorf("LastState = %v", state)
	}
	if _, ok := rec.Last(TypeDocumentHeight); ok {
		t.Error("Last found a message that was never sent")
	}

	rec.Reset()
	if len(rec.Messages()) != 0 {
		t.Error("Reset kept messages")
	}
	if _, ok := rec.LastState(); ok {
		t.Error("LastState after Reset")
	}
}

func TestTestHarness(t *testing.T) {
	e := DefaultEnv()
	e.Editable = false
	e.InitialContent = "<p>start</p>"

	h := NewTestHarness(NewRegistry(&HandlerFuncs{
		HandlerName: "editable",
		State:       func(ed Editor) BridgeState { return BridgeState{"isEditable": ed.IsEditable()} },
	}), e)
	h.Start()
	defer h.Stop()

	if h.Editor.IsEditable() {
		t.Error("editor should follow Env.Editable")
	}
	if h.Bridge.Editor() != h.Editor {
		t.Error("editor not mounted")
	}

	h.Settle()
	state, ok := h.Recorder.LastState()
	if !ok || state["isEditable"] != false {
		t.Errorf("state = %v", state)
	}
}
