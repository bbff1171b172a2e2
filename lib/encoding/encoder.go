package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Sentinel errors returned by Encoder.
var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrEmptyInput    = errors.New("empty input")
)

// Codec marshals values to and from bytes.
//
// Two codecs are provided:
//   - JSON (default): the transport string is the JSON text itself
//   - MsgPack: msgpack bytes carried as unpadded base64url text
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Textual reports whether marshaled bytes are already valid transport text.
	Textual() bool
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return MarshalJSON(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Textual() bool                      { return true }

// MarshalJSON is json.Marshal without HTML escaping, so editor markup stays
// readable on the wire.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

func (msgpackCodec) Textual() bool { return false }

// JSON returns the JSON codec.
func JSON() Codec { return jsonCodec{} }

// MsgPack returns the msgpack codec.
func MsgPack() Codec { return msgpackCodec{} }

// Lookup returns the codec registered under name, or nil.
func Lookup(name string) Codec {
	switch name {
	case "", "json":
		return JSON()
	case "msgpack":
		return MsgPack()
	}
	return nil
}

// Encoder turns values into transport strings and back.
type Encoder struct {
	codec Codec
}

// NewEncoder creates an encoder for the given codec.
// A nil codec selects JSON.
func NewEncoder(codec Codec) *Encoder {
	if codec == nil {
		codec = JSON()
	}
	return &Encoder{codec: codec}
}

// Codec returns the encoder's codec.
func (e *Encoder) Codec() Codec {
	return e.codec
}

// Encode serializes v into a transport string.
func (e *Encoder) Encode(v any) (string, error) {
	data, err := e.codec.Marshal(v)
	if err != nil {
		return "", err
	}
	if e.codec.Textual() {
		return string(data), nil
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode deserializes a transport string into v.
// Every failure wraps ErrInvalidFormat or ErrEmptyInput.
func (e *Encoder) Decode(encoded string, v any) error {
	if encoded == "" {
		return ErrEmptyInput
	}

	data := []byte(encoded)
	if !e.codec.Textual() {
		raw, err := base64.RawURLEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		data = raw
	}

	if err := e.codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return nil
}
