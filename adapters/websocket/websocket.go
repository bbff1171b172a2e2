// Package webbridgews carries bridge messages over websocket connections.
//
// A Hub is both ends of the bridge's plumbing for browser-hosted editors:
// frames received from any connection are dispatched as "message" events on
// an EventTarget the bridge listens to, and messages the bridge posts are
// broadcast to every connection.
//
//	b, _ := webbridge.New(reg, env)
//	hub := webbridgews.NewHub(b.Window())
//	b.Outbound().SetTransport(hub)
//	http.Handle("/ws", hub.Handler())
package webbridgews

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pthm/webbridge"
	"golang.org/x/net/websocket"
)

// DefaultWriteTimeout bounds a broadcast write to one connection.
const DefaultWriteTimeout = 5 * time.Second

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub's logger.
func WithLogger(l webbridge.Logger) Option {
	return func(h *Hub) {
		h.logger = l
	}
}

// WithWriteTimeout overrides DefaultWriteTimeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.writeTimeout = d
	}
}

// Hub fans websocket connections in and out of a bridge.
type Hub struct {
	target       *webbridge.EventTarget
	logger       webbridge.Logger
	writeTimeout time.Duration

	mu    sync.Mutex
	peers map[*peer]struct{}
}

type peer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *peer) send(message string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if timeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return websocket.Message.Send(p.conn, message)
}

// NewHub creates a hub delivering inbound frames to target.
func NewHub(target *webbridge.EventTarget, opts ...Option) *Hub {
	h := &Hub{
		target:       target,
		writeTimeout: DefaultWriteTimeout,
		peers:        make(map[*peer]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = webbridge.NopLogger()
	}
	return h
}

// Handler returns the websocket endpoint.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

// Peers returns the number of open connections.
func (h *Hub) Peers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// PostMessage implements webbridge.Transport by broadcasting to every
// connection. It fails with ErrTransportUnavailable when nobody is connected.
func (h *Hub) PostMessage(message string) error {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	if len(peers) == 0 {
		return webbridge.ErrTransportUnavailable
	}

	var errs []error
	for _, p := range peers {
		if err := p.send(message, h.writeTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Hub) serve(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	p := &peer{conn: conn}
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.peers, p)
		h.mu.Unlock()
	}()

	for {
		var frame string
		if err := websocket.Message.Receive(conn, &frame); err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.Debug("webbridgews: connection closed", "error", err)
			}
			return
		}
		h.target.Dispatch(webbridge.Event{Type: webbridge.EventMessage, Data: frame})
	}
}
