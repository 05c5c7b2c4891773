// internal/event/event.go
package event

import (
	"errors"
	"fmt"
)

// Event is one notification from the core to the presentation layer.
// The set of variants is closed: only the types in this file implement it.
type Event interface {
	isEvent()
	Kind() string
}

// ConnectedUIState tells the presentation layer a session is live.
type ConnectedUIState struct {
	Transport string
	Address   uint8
}

// DisconnectedUIState tells the presentation layer no session is live.
type DisconnectedUIState struct{}

// Error carries a human readable message and the error that caused it.
type Error struct {
	Message string
	Err     error
}

// PortsChanged carries the current transport snapshot.
type PortsChanged struct {
	Ports PortSet
}

// RegistersUpdated carries one complete poll cycle.
type RegistersUpdated struct {
	Frame Frame
}

// ActionResult reports the outcome of a device action.
// Err == nil means the mutating write succeeded.
type ActionResult struct {
	Tag string
	Err error
}

func (ConnectedUIState) isEvent()    {}
func (DisconnectedUIState) isEvent() {}
func (Error) isEvent()               {}
func (PortsChanged) isEvent()        {}
func (RegistersUpdated) isEvent()    {}
func (ActionResult) isEvent()        {}

func (ConnectedUIState) Kind() string    { return "connected" }
func (DisconnectedUIState) Kind() string { return "disconnected" }
func (Error) Kind() string               { return "error" }
func (PortsChanged) Kind() string        { return "ports_changed" }
func (RegistersUpdated) Kind() string    { return "registers_updated" }
func (ActionResult) Kind() string        { return "action_result" }

// NewError builds an Error event whose message includes the cause.
func NewError(err error, format string, args ...any) Error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return Error{Message: msg, Err: err}
}

// OK reports whether the action succeeded.
func (r ActionResult) OK() bool { return r.Err == nil }

// ErrChannelClosed is returned when one endpoint of the command or event
// channel is gone. It is fatal only to the task that observes it.
var ErrChannelClosed = errors.New("channel closed")
