// internal/session/session.go
package session

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-sensorlink/internal/config"
	"github.com/tamzrod/modbus-sensorlink/internal/logging"
)

// Session is a live handle bound to one transport and one device address.
// It is exclusively owned by the task that opened it.
type Session interface {
	ReadRegisters(ctx context.Context, offset, count uint16) ([]uint16, error)
	WriteSingleRegister(ctx context.Context, offset, value uint16) error
	Close() error
}

// Opener opens sessions. One call = one new session, nothing is cached.
type Opener interface {
	Open(ctx context.Context, transport string, address uint8) (Session, error)
}

// Settings is the serial line and request configuration of every session.
type Settings struct {
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
	Timeout  time.Duration // per request
	Function string        // config.FunctionInput or config.FunctionHolding
}

// SettingsFrom maps normalized config onto Settings.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		BaudRate: cfg.Serial.BaudRate,
		DataBits: cfg.Serial.DataBits,
		Parity:   strings.ToUpper(cfg.Serial.Parity),
		StopBits: cfg.Serial.StopBits,
		Timeout:  cfg.Poll.ReadTimeout(),
		Function: cfg.Poll.Function,
	}
}

// Builder opens Modbus RTU sessions.
type Builder struct {
	settings Settings
	log      zerolog.Logger
}

// NewBuilder creates a session builder with immutable settings.
func NewBuilder(settings Settings, log zerolog.Logger) *Builder {
	return &Builder{
		settings: settings,
		log:      log.With().Str("component", "session").Logger(),
	}
}

// Open binds a session to transport/address.
// Fails with ErrTransportUnavailable if the transport cannot be opened and
// with ErrInvalidAddress, before any IO, for an address outside 1..247.
func (b *Builder) Open(ctx context.Context, transport string, address uint8) (Session, error) {
	if transport == "" {
		return nil, &Error{Op: "open", Address: address, Kind: ErrTransportUnavailable, Err: errNoTransport}
	}
	if address < 1 || address > 247 {
		return nil, &Error{Op: "open", Transport: transport, Address: address, Kind: ErrInvalidAddress}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "open", Transport: transport, Address: address, Kind: ErrTransportUnavailable, Err: err}
	}

	var stdlog = logging.StdLogger(b.log, "rtu")
	if b.log.GetLevel() > zerolog.TraceLevel {
		stdlog = nil
	}

	s, err := dialRTU(transport, address, b.settings, stdlog)
	if err != nil {
		b.log.Debug().Err(err).Str("transport", transport).Uint8("address", address).Msg("open failed")
		return nil, &Error{Op: "open", Transport: transport, Address: address, Kind: ErrTransportUnavailable, Err: err}
	}

	b.log.Debug().Str("transport", transport).Uint8("address", address).Msg("session opened")
	return s, nil
}
