package webbridge

import "sync"

// EventMessage is the event type that carries host messages.
const EventMessage = "message"

// Event is a raw event observed on an inbound source.
//
// Host messages arrive as Type "message" with the encoded Message as Data
// (a string, or []byte for transports that deliver binary frames). Other
// events may share the channel and are ignored by the listener.
type Event struct {
	Type string
	Data any
}

// Source delivers host-originated events.
//
// Host platforms surface the same logical message on different targets, so
// the listener subscribes to several sources and funnels them into one
// decode/dedup/dispatch pipeline. AddListener returns a function that detaches
// the listener; calling it more than once is safe.
type Source interface {
	AddListener(fn func(Event)) (remove func())
}

// EventTarget is an in-process Source, modeled on a DOM event target.
// Adapters (websocket, HTTP) and tests deliver host messages by calling
// Dispatch.
type EventTarget struct {
	name string

	mu        sync.RWMutex
	nextID    uint64
	listeners map[uint64]func(Event)
	order     []uint64
}

// NewEventTarget creates an empty target. The name is informational.
func NewEventTarget(name string) *EventTarget {
	return &EventTarget{
		name:      name,
		listeners: make(map[uint64]func(Event)),
	}
}

// Name returns the target's name.
func (t *EventTarget) Name() string {
	return t.name
}

// AddListener implements Source.
func (t *EventTarget) AddListener(fn func(Event)) func() {
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.listeners[id] = fn
	t.order = append(t.order, id)
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.listeners, id)
			for i, v := range t.order {
				if v == id {
					t.order = append(t.order[:i], t.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Listeners returns the number of attached listeners.
func (t *EventTarget) Listeners() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.listeners)
}

// Dispatch delivers ev synchronously to every listener in attach order.
func (t *EventTarget) Dispatch(ev Event) {
	t.mu.RLock()
	fns := make([]func(Event), 0, len(t.order))
	for _, id := range t.order {
		fns = append(fns, t.listeners[id])
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// PostMessage dispatches an encoded host message as a "message" event.
// This lets an EventTarget serve as the host end of a Transport in tests and
// loopback setups.
func (t *EventTarget) PostMessage(message string) error {
	t.Dispatch(Event{Type: EventMessage, Data: message})
	return nil
}
