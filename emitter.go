package webbridge

import (
	"time"

	"github.com/pthm/webbridge/lib/debounce"
)

// DefaultDebounce is the window within which state triggers are coalesced.
const DefaultDebounce = 10 * time.Millisecond

// StateFunc computes the consolidated state for an editor.
type StateFunc func(ed Editor) BridgeState

// StateEmitter sends the consolidated editor state to the host after editor
// changes, coalescing bursts of triggers into one send.
//
// Trigger is trailing-edge debounced: each call replaces the pending
// computation, and the state is computed from the editor passed to the last
// Trigger once the window elapses quietly. Notify sends lightweight
// notifications immediately; they are never delayed behind the state.
type StateEmitter struct {
	state    StateFunc
	out      Sender
	debounce *debounce.Debouncer
	logger   Logger
}

// NewStateEmitter creates an emitter sending through out.
func NewStateEmitter(state StateFunc, out Sender, d *debounce.Debouncer, logger Logger) *StateEmitter {
	if d == nil {
		d = debounce.New(DefaultDebounce)
	}
	if logger == nil {
		logger = defaultLogger
	}
	return &StateEmitter{
		state:    state,
		out:      out,
		debounce: d,
		logger:   logger,
	}
}

// Trigger schedules a state update for ed, replacing any pending one.
func (e *StateEmitter) Trigger(ed Editor) {
	e.debounce.Schedule(func() {
		e.emit(ed)
	})
}

// Notify sends a payload-less notification immediately.
func (e *StateEmitter) Notify(typ MessageType) {
	e.out.Send(Message{Type: typ})
}

// Flush sends the pending state update now, if any.
func (e *StateEmitter) Flush() {
	e.debounce.Flush()
}

// CancelPending drops the pending state update, if any.
func (e *StateEmitter) CancelPending() bool {
	return e.debounce.CancelPending()
}

// Pending reports whether a state update is scheduled.
func (e *StateEmitter) Pending() bool {
	return e.debounce.Pending()
}

func (e *StateEmitter) emit(ed Editor) {
	state := e.state(ed)
	m, err := NewMessage(TypeStateUpdate, state)
	if err != nil {
		e.logger.Warn("webbridge: dropping unserializable state", "error", err)
		return
	}
	e.out.Send(m)
}
