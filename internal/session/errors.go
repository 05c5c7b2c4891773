// internal/session/errors.go
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goburrow/modbus"
	"github.com/goburrow/serial"
)

// Error kinds. Match with errors.Is.
var (
	// ErrTransportUnavailable: the named transport is missing, busy or gone.
	ErrTransportUnavailable = errors.New("transport unavailable")
	// ErrProtocolTimeout: a single register operation exceeded its deadline.
	ErrProtocolTimeout = errors.New("protocol timeout")
	// ErrProtocolError: malformed or exception response from the device.
	ErrProtocolError = errors.New("protocol error")
	// ErrInvalidAddress: the device address is outside 1..247. No IO happened.
	ErrInvalidAddress = errors.New("modbus address must be in 1..247")
)

// Error is the structured failure of one session operation.
// It matches both its Kind and its cause.
type Error struct {
	Op        string // "open", "read", "write"
	Transport string
	Address   uint8
	Offset    uint16 // meaningful for read/write only
	Kind      error
	Err       error
}

func (e *Error) Error() string {
	where := fmt.Sprintf("%s (address %d)", e.Transport, e.Address)
	var msg string
	switch e.Op {
	case "open":
		msg = fmt.Sprintf("open %s: %v", where, e.Kind)
	default:
		msg = fmt.Sprintf("%s register %d on %s: %v", e.Op, e.Offset, where, e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Classify maps a raw protocol/transport error onto one of the error kinds.
// The result is always the bare sentinel.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTransportUnavailable):
		return ErrTransportUnavailable
	case errors.Is(err, ErrProtocolTimeout):
		return ErrProtocolTimeout
	case errors.Is(err, ErrProtocolError):
		return ErrProtocolError
	case errors.Is(err, ErrInvalidAddress):
		return ErrInvalidAddress
	}

	var mbErr *modbus.ModbusError
	switch {
	case errors.As(err, &mbErr):
		return ErrProtocolError
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, serial.ErrTimeout):
		return ErrProtocolTimeout
	case isDisconnection(err):
		return ErrTransportUnavailable
	default:
		return ErrProtocolError
	}
}

// isDisconnection matches OS-level errors raised when a serial device is unplugged.
func isDisconnection(err error) bool {
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrClosed) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "device not configured") ||
		strings.Contains(s, "input/output error") ||
		strings.Contains(s, "no such device") ||
		strings.Contains(s, "device not found") ||
		strings.Contains(s, "broken pipe") ||
		strings.Contains(s, "bad file descriptor")
}

func opError(op, transport string, address uint8, offset uint16, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{
		Op:        op,
		Transport: transport,
		Address:   address,
		Offset:    offset,
		Kind:      Classify(err),
		Err:       err,
	}
}

// KindName is the short label of an error kind, used in metrics and
// MQTT payloads.
func KindName(err error) string {
	switch Classify(err) {
	case nil:
		return ""
	case ErrTransportUnavailable:
		return "transport_unavailable"
	case ErrProtocolTimeout:
		return "protocol_timeout"
	case ErrInvalidAddress:
		return "invalid_address"
	default:
		return "protocol_error"
	}
}
