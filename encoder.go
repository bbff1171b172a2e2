package webbridge

import (
	"errors"
	"fmt"

	"github.com/pthm/webbridge/lib/encoding"
)

// Codec is an alias for encoding.Codec for convenience.
type Codec = encoding.Codec

// Encoder converts Messages to and from transport strings.
type Encoder struct {
	enc *encoding.Encoder
}

// NewEncoder creates a message encoder for the given codec.
// A nil codec selects JSON, the format hosts expect by default.
func NewEncoder(codec Codec) *Encoder {
	return &Encoder{enc: encoding.NewEncoder(codec)}
}

var defaultEncoder = NewEncoder(nil)

// DefaultEncoder returns the shared JSON encoder.
func DefaultEncoder() *Encoder {
	return defaultEncoder
}

// Codec returns the underlying codec.
func (e *Encoder) Codec() Codec {
	return e.enc.Codec()
}

// Encode serializes a message into a transport string.
func (e *Encoder) Encode(m Message) (string, error) {
	if m.Type == "" {
		return "", fmt.Errorf("webbridge: encode: message has no type")
	}
	return e.enc.Encode(m)
}

// Decode parses a transport string into a Message.
//
// Decoding is all-or-nothing: any failure returns the zero Message and an
// error wrapping ErrMalformedMessage. A message must carry a non-empty type.
func (e *Encoder) Decode(s string) (Message, error) {
	var m Message
	if err := e.enc.Decode(s, &m); err != nil {
		return Message{}, wrapEncodingError(err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return m, nil
}

// wrapEncodingError wraps encoding package errors with webbridge sentinel errors.
func wrapEncodingError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, encoding.ErrEmptyInput) {
		return fmt.Errorf("%w: empty input", ErrMalformedMessage)
	}
	return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
}
