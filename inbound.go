package webbridge

import (
	"encoding/json"
	"sync"
)

// ListenerState is the subscription state of a Listener.
type ListenerState int

const (
	Unsubscribed ListenerState = iota
	Subscribed
)

func (s ListenerState) String() string {
	if s == Subscribed {
		return "subscribed"
	}
	return "unsubscribed"
}

// DispatchFunc delivers a deduplicated action payload to the handlers.
type DispatchFunc func(action json.RawMessage)

// Listener subscribes to inbound sources, decodes host messages, drops
// immediate redeliveries and dispatches actions.
//
// Pipeline per event:
//  1. ignore events that are not "message" events with string/[]byte data
//  2. decode, silently dropping malformed messages
//  3. ignore kinds other than action
//  4. drop IDs the Deduper has seen; record new ones
//  5. dispatch the action payload
type Listener struct {
	sources  []Source
	encoder  *Encoder
	dedup    *Deduper
	dispatch DispatchFunc
	logger   Logger

	mu      sync.Mutex
	state   ListenerState
	removes []func()
}

// NewListener creates an unsubscribed listener.
func NewListener(sources []Source, encoder *Encoder, dedup *Deduper, dispatch DispatchFunc, logger Logger) *Listener {
	if encoder == nil {
		encoder = DefaultEncoder()
	}
	if dedup == nil {
		dedup = NewDeduper(1)
	}
	if logger == nil {
		logger = defaultLogger
	}
	return &Listener{
		sources:  sources,
		encoder:  encoder,
		dedup:    dedup,
		dispatch: dispatch,
		logger:   logger,
	}
}

// State returns the current subscription state.
func (l *Listener) State() ListenerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Subscribe attaches to every source. It is a no-op when already subscribed.
func (l *Listener) Subscribe() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == Subscribed {
		return
	}
	l.dedup.Reset()
	for _, src := range l.sources {
		if src == nil {
			continue
		}
		l.removes = append(l.removes, src.AddListener(func(ev Event) { l.HandleEvent(ev) }))
	}
	l.state = Subscribed
}

// Unsubscribe detaches from every source. It is a no-op when not subscribed.
func (l *Listener) Unsubscribe() {
	l.mu.Lock()
	removes := l.removes
	l.removes = nil
	wasSubscribed := l.state == Subscribed
	l.state = Unsubscribed
	l.mu.Unlock()

	if !wasSubscribed {
		return
	}
	for _, remove := range removes {
		remove()
	}
	l.dedup.Reset()
}

// HandleEvent runs one raw event through the pipeline. It reports whether the
// event was dispatched.
func (l *Listener) HandleEvent(ev Event) bool {
	if ev.Type != EventMessage {
		return false
	}

	var data string
	switch v := ev.Data.(type) {
	case string:
		data = v
	case []byte:
		data = string(v)
	default:
		return false
	}

	msg, err := l.encoder.Decode(data)
	if err != nil {
		l.logger.Debug("webbridge: dropping malformed message", "error", err)
		return false
	}
	if !msg.IsAction() {
		return false
	}
	if l.dedup.Seen(msg.ID) {
		l.logger.Debug("webbridge: dropping duplicate action", "id", msg.ID)
		return false
	}

	if l.dispatch != nil {
		l.dispatch(msg.Payload)
	}
	return true
}
