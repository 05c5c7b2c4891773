// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
)

// Run polls until the generation is retired, a read fails, the sink is gone
// or ctx is cancelled. One goroutine per connection. No retries.
//
// The shared state and ctx are observed at the start of each cycle, before a
// frame is published and during the pacing delay. They are never observed
// between two registers: an in-flight cycle ends only by completing or by a
// read timeout.
func (p *Poller) Run(ctx context.Context) {
	log := p.deps.Log
	defer func() {
		if err := p.session.Close(); err != nil {
			log.Debug().Err(err).Msg("session close failed")
		}
	}()

	log.Debug().Msg("polling started")

	for {
		if ctx.Err() != nil || !p.active() {
			log.Debug().Msg("polling stopped")
			return
		}

		start := time.Now()
		frame, err := p.PollOnce(ctx)
		if err != nil {
			p.fail(ctx, err)
			return
		}
		p.deps.Metrics.CycleCompleted(time.Since(start))

		if !p.active() {
			log.Debug().Msg("polling stopped, frame dropped")
			return
		}
		if err := p.deps.Sink.Emit(ctx, event.RegistersUpdated{Frame: frame}); err != nil {
			log.Debug().Err(err).Msg("event sink gone")
			return
		}

		if !p.pace(ctx) {
			log.Debug().Msg("polling stopped")
			return
		}
	}
}

func (p *Poller) active() bool {
	return p.deps.State.Active(p.deps.Generation)
}

// fail surfaces exactly one Error and hands the transition to the dispatcher.
func (p *Poller) fail(ctx context.Context, err error) {
	log := p.deps.Log

	// shutdown, not a device failure
	if ctx.Err() != nil {
		return
	}

	var re *ReadError
	if errors.As(err, &re) {
		p.deps.Metrics.ReadFailed(re.Offset, re.Kind)
	}

	// a retired connection has nobody to report to
	if !p.active() {
		log.Debug().Err(err).Msg("read failed after disconnect")
		return
	}

	log.Warn().Err(err).Msg("poll cycle aborted")
	if emitErr := p.deps.Sink.Emit(ctx, event.NewError(err, "polling stopped")); emitErr != nil {
		log.Debug().Err(emitErr).Msg("event sink gone")
	}
	p.deps.OnFailure(p.deps.Generation, err)
}

// pace waits the configured interval. It returns false if polling must stop.
func (p *Poller) pace(ctx context.Context) bool {
	if p.cfg.Interval <= 0 {
		return true
	}

	t := time.NewTimer(p.cfg.Interval)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return p.active()
	}
}
