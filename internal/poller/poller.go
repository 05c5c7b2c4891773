// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
	"github.com/tamzrod/modbus-sensorlink/internal/session"
)

// Deps are the collaborators of one poller.
type Deps struct {
	State      Observer
	Generation uint64 // the connect generation this poller belongs to
	Sink       event.Sink
	OnFailure  FailureFunc
	Metrics    Recorder
	Log        zerolog.Logger
}

// Poller reads a fixed-length register frame, one offset per request,
// for as long as its generation is the active connection.
type Poller struct {
	cfg     Config
	session session.Session
	deps    Deps
}

// New creates a poller bound to an open session.
// The poller owns the session from here on and closes it when it stops.
func New(cfg Config, s session.Session, deps Deps) (*Poller, error) {
	if cfg.Registers == 0 {
		return nil, errors.New("poller: at least one register required")
	}
	if cfg.ReadTimeout <= 0 {
		return nil, errors.New("poller: read timeout must be > 0")
	}
	if cfg.Interval < 0 {
		return nil, errors.New("poller: interval must be >= 0")
	}
	if s == nil {
		return nil, errors.New("poller: session required")
	}
	if deps.State == nil || deps.Sink == nil {
		return nil, errors.New("poller: state and sink required")
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	if deps.OnFailure == nil {
		deps.OnFailure = func(uint64, error) {}
	}
	deps.Log = deps.Log.With().Str("component", "poller").Uint64("generation", deps.Generation).Logger()

	return &Poller{cfg: cfg, session: s, deps: deps}, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: the first failing offset aborts the cycle and no frame is returned.
func (p *Poller) PollOnce(ctx context.Context) (event.Frame, error) {
	frame := make(event.Frame, p.cfg.Registers)

	for i := range frame {
		offset := p.cfg.StartOffset + uint16(i)

		v, err := p.readOne(ctx, offset)
		if err != nil {
			return nil, newReadError(offset, err)
		}
		frame[i] = v
	}

	// Commit only if all reads succeeded
	return frame, nil
}

// readOne is bounded by the read timeout only. Cancelling ctx does not
// interrupt a request that is already on the line.
func (p *Poller) readOne(ctx context.Context, offset uint16) (uint16, error) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.ReadTimeout)
	defer cancel()

	vals, err := p.session.ReadRegisters(rctx, offset, 1)
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, fmt.Errorf("%w: expected 1 register, got %d", session.ErrProtocolError, len(vals))
	}
	return vals[0], nil
}
