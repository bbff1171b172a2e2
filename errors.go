package webbridge

import (
	"errors"
	"fmt"
)

// Sentinel errors for bridge operations.
var (
	ErrMalformedMessage     = errors.New("webbridge: malformed message")
	ErrTransportUnavailable = errors.New("webbridge: host transport unavailable")
	ErrUnknownCapability    = errors.New("webbridge: unknown capability")
	ErrInvalidConfig        = errors.New("webbridge: invalid configuration")
)

// UnknownCapabilityError describes a mismatch between the host configuration
// and the registered handlers. It is reported as a warning; the bridge keeps
// working and the mismatched entry is ignored.
type UnknownCapabilityError struct {
	Name   string
	Reason string
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("webbridge: unknown capability %q: %s", e.Name, e.Reason)
}

func (e *UnknownCapabilityError) Unwrap() error {
	return ErrUnknownCapability
}

// HandlerError records a panic recovered from a handler callback.
type HandlerError struct {
	Handler string
	Op      string
	Value   any
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("webbridge: handler %q panicked in %s: %v", e.Handler, e.Op, e.Value)
}

// IsMalformedMessage checks if err is a decode failure.
func IsMalformedMessage(err error) bool {
	return errors.Is(err, ErrMalformedMessage)
}

// IsUnknownCapability checks if err reports a configuration/registry mismatch.
func IsUnknownCapability(err error) bool {
	return errors.Is(err, ErrUnknownCapability)
}

// IsTransportUnavailable checks if err reports a missing or closed host transport.
func IsTransportUnavailable(err error) bool {
	return errors.Is(err, ErrTransportUnavailable)
}
