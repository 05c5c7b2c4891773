// internal/bridge/codec.go
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
	"github.com/tamzrod/modbus-sensorlink/internal/link"
	"github.com/tamzrod/modbus-sensorlink/internal/session"
)

var ErrBadCommand = errors.New("bad command")

// CommandMessage is the JSON form of a command.
//
//	{"command":"connect","transport":"/dev/ttyUSB0","address":247}
type CommandMessage struct {
	Command    string  `json:"command"`
	Transport  string  `json:"transport,omitempty"`
	Address    uint8   `json:"address,omitempty"`
	Mode       *uint16 `json:"mode,omitempty"`
	NewAddress *uint8  `json:"new_address,omitempty"`
}

// DecodeCommand parses a JSON command. Target fields are checked here;
// range checks are left to the handlers.
func DecodeCommand(data []byte) (link.Command, error) {
	var m CommandMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCommand, err)
	}

	if m.Command == "disconnect" {
		return link.Disconnect{}, nil
	}
	if m.Transport == "" {
		return nil, fmt.Errorf("%w: %q requires transport", ErrBadCommand, m.Command)
	}

	switch m.Command {
	case "connect":
		return link.Connect{Transport: m.Transport, Address: m.Address}, nil
	case "update_sensor":
		return link.UpdateSensor{Transport: m.Transport, Address: m.Address}, nil
	case "nullpunkt":
		return link.Nullpunkt{Transport: m.Transport, Address: m.Address}, nil
	case "messgas":
		return link.Messgas{Transport: m.Transport, Address: m.Address}, nil
	case "new_working_mode":
		if m.Mode == nil {
			return nil, fmt.Errorf("%w: new_working_mode requires mode", ErrBadCommand)
		}
		return link.NewWorkingMode{Transport: m.Transport, Address: m.Address, Mode: *m.Mode}, nil
	case "new_modbus_address":
		if m.NewAddress == nil {
			return nil, fmt.Errorf("%w: new_modbus_address requires new_address", ErrBadCommand)
		}
		return link.NewModbusAddress{Transport: m.Transport, Address: m.Address, NewAddress: *m.NewAddress}, nil
	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrBadCommand, m.Command)
	}
}

// EventMessage is the JSON form of an event.
type EventMessage struct {
	Kind      string    `json:"kind"`
	Time      time.Time `json:"time"`
	Transport string    `json:"transport,omitempty"`
	Address   uint8     `json:"address,omitempty"`
	Message   string    `json:"message,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Ports     []string  `json:"ports,omitempty"`
	Registers []uint16  `json:"registers,omitempty"`
	Action    string    `json:"action,omitempty"`
	OK        *bool     `json:"ok,omitempty"`
}

func EncodeEvent(ev event.Event, now time.Time) ([]byte, error) {
	m := EventMessage{Kind: ev.Kind(), Time: now.UTC()}

	switch e := ev.(type) {
	case event.ConnectedUIState:
		m.Transport = e.Transport
		m.Address = e.Address
	case event.DisconnectedUIState:
	case event.Error:
		m.Message = e.Message
		if e.Err != nil {
			m.ErrorKind = session.KindName(e.Err)
		}
	case event.PortsChanged:
		m.Ports = e.Ports
	case event.RegistersUpdated:
		m.Registers = e.Frame
	case event.ActionResult:
		ok := e.OK()
		m.Action = e.Tag
		m.OK = &ok
		if e.Err != nil {
			m.Message = e.Err.Error()
		}
	default:
		return nil, fmt.Errorf("unsupported event %T", ev)
	}

	return json.Marshal(m)
}
