// internal/writer/mirror.go
package writer

import (
	"context"
	"errors"
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/modbus-sensorlink/internal/config"
	"github.com/tamzrod/modbus-sensorlink/internal/event"
	"github.com/tamzrod/modbus-sensorlink/internal/session"
)

// Last error codes written to the status block.
// Modbus exception responses pass their exception code through (1..11).
const (
	ErrorCodeGeneric              uint16 = 0x0100
	ErrorCodeTransportUnavailable uint16 = 0x0101
	ErrorCodeProtocolTimeout      uint16 = 0x0102
	ErrorCodeProtocolError        uint16 = 0x0103
	ErrorCodeInvalidAddress       uint16 = 0x0104
)

// Mirror replicates published frames and the link health into Modbus TCP
// servers. It owns its status snapshot; nothing else writes it.
type Mirror struct {
	frames   *frameWriter
	status   *statusWriter
	statusOn bool
	closer   func() error
	log      zerolog.Logger

	snap Status
}

// New builds the mirror and its endpoint clients.
func New(m cfg.MirrorConfig, log zerolog.Logger) (*Mirror, error) {
	plan := BuildPlan(m)
	clients, closer, err := BuildEndpointClients(plan, m)
	if err != nil {
		return nil, err
	}
	mr := newMirror(plan, clients, log)
	mr.closer = closer
	return mr, nil
}

func newMirror(plan Plan, clients map[string]endpointClient, log zerolog.Logger) *Mirror {
	sw, on := newStatusWriter(plan, clients)
	return &Mirror{
		frames:   newFrameWriter(plan, clients),
		status:   sw,
		statusOn: on,
		closer:   func() error { return nil },
		log:      log.With().Str("component", "mirror").Logger(),
	}
}

func (m *Mirror) Close() error { return m.closer() }

// Run consumes events until ctx is done or the channel is closed.
// While the link is in error the status block counts seconds at 1 Hz.
func (m *Mirror) Run(ctx context.Context, events <-chan event.Event) error {
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// identity re-assert on start
	m.writeStatus()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return event.ErrChannelClosed
			}
			m.Handle(ev)

		case <-secTicker.C:
			m.tick()
		}
	}
}

// Handle applies one event.
func (m *Mirror) Handle(ev event.Event) {
	switch e := ev.(type) {
	case event.RegistersUpdated:
		if err := m.frames.Write(e.Frame); err != nil {
			m.log.Warn().Err(err).Msg("frame not mirrored")
		}
		m.update(Status{Health: HealthOK})

	case event.Error:
		m.update(Status{
			Health:         HealthError,
			LastErrorCode:  errorCode(e.Err),
			SecondsInError: m.snap.SecondsInError,
		})

	case event.ConnectedUIState:
		m.update(Status{Health: HealthUnknown})

	case event.DisconnectedUIState:
		// an error that caused the disconnect stays visible
		if m.snap.Health != HealthError {
			m.update(Status{Health: HealthDisabled})
		}
	}
}

func (m *Mirror) tick() {
	if m.snap.Health != HealthError || m.snap.SecondsInError == 0xFFFF {
		return
	}
	next := m.snap
	next.SecondsInError++
	m.update(next)
}

func (m *Mirror) update(s Status) {
	if s == m.snap {
		return
	}
	m.snap = s
	m.writeStatus()
}

func (m *Mirror) writeStatus() {
	if !m.statusOn {
		return
	}
	if err := m.status.WriteStatus(m.snap); err != nil {
		m.log.Warn().Err(err).Msg("status not mirrored")
	}
}

// errorCode maps an error onto a last-error code.
func errorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return uint16(mbErr.ExceptionCode)
	}

	switch {
	case errors.Is(err, session.ErrTransportUnavailable):
		return ErrorCodeTransportUnavailable
	case errors.Is(err, session.ErrProtocolTimeout):
		return ErrorCodeProtocolTimeout
	case errors.Is(err, session.ErrProtocolError):
		return ErrorCodeProtocolError
	case errors.Is(err, session.ErrInvalidAddress):
		return ErrorCodeInvalidAddress
	}
	return ErrorCodeGeneric
}
