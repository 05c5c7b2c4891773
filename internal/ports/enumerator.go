// internal/ports/enumerator.go
package ports

import (
	"github.com/rs/zerolog"
	"go.bug.st/serial/enumerator"
)

// Lister enumerates the transport identifiers currently present.
type Lister interface {
	List() ([]string, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func() ([]string, error)

func (f ListerFunc) List() ([]string, error) { return f() }

// SerialEnumerator lists serial ports through the OS enumerator.
type SerialEnumerator struct {
	log zerolog.Logger
}

func NewSerialEnumerator(log zerolog.Logger) *SerialEnumerator {
	return &SerialEnumerator{log: log.With().Str("component", "enumerator").Logger()}
}

func (e *SerialEnumerator) List() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ports))
	for _, p := range ports {
		if p.IsUSB {
			e.log.Trace().
				Str("port", p.Name).
				Str("vid", p.VID).
				Str("pid", p.PID).
				Str("serial", p.SerialNumber).
				Msg("usb port")
		}
		names = append(names, p.Name)
	}
	return names, nil
}
