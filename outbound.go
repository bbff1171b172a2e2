package webbridge

import "sync"

// Transport hands encoded messages to the host (the web view's postMessage).
type Transport interface {
	PostMessage(message string) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(message string) error

// PostMessage implements Transport.
func (f TransportFunc) PostMessage(message string) error { return f(message) }

// Outbound sends messages from the document context to the host.
//
// Delivery is fire-and-forget: no acknowledgement, no retry. When there is no
// transport (the editor runs outside the embedding web view) Send is a silent
// no-op. Encode and transport failures are logged at debug level and dropped,
// so Send never fails. Calls are serialized, so the transport sees messages
// in submission order.
type Outbound struct {
	mu        sync.Mutex
	transport Transport
	encoder   *Encoder
	logger    Logger
}

// NewOutbound creates an outbound channel. transport may be nil.
func NewOutbound(transport Transport, encoder *Encoder, logger Logger) *Outbound {
	if encoder == nil {
		encoder = DefaultEncoder()
	}
	if logger == nil {
		logger = defaultLogger
	}
	return &Outbound{
		transport: transport,
		encoder:   encoder,
		logger:    logger,
	}
}

// Available reports whether a host transport is attached.
func (o *Outbound) Available() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transport != nil
}

// SetTransport swaps the host transport. Passing nil switches to standalone mode.
func (o *Outbound) SetTransport(t Transport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transport = t
}

// Send implements Sender.
func (o *Outbound) Send(m Message) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.transport == nil {
		return
	}

	encoded, err := o.encoder.Encode(m)
	if err != nil {
		o.logger.Debug("webbridge: dropping outbound message", "type", m.Type, "error", err)
		return
	}

	if err := o.transport.PostMessage(encoded); err != nil {
		o.logger.Debug("webbridge: host transport rejected message", "type", m.Type, "error", err)
	}
}

// SendType sends a message of the given type with payload, dropping it if the
// payload cannot be marshaled.
func (o *Outbound) SendType(typ MessageType, payload any) {
	m, err := NewMessage(typ, payload)
	if err != nil {
		o.logger.Debug("webbridge: dropping outbound message", "type", typ, "error", err)
		return
	}
	o.Send(m)
}
