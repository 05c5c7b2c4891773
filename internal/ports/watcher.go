// internal/ports/watcher.go
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
)

// ShrinkFunc is called after a PortsChanged for a smaller set was emitted,
// with the snapshot before and after the shrink.
type ShrinkFunc func(ctx context.Context, prev, current event.PortSet)

// Recorder receives the size of every accepted snapshot.
type Recorder interface {
	PortsSeen(n int)
}

type nopRecorder struct{}

func (nopRecorder) PortsSeen(int) {}

// Watcher periodically enumerates transports and reports changes in
// cardinality. A same-size membership swap is not reported.
type Watcher struct {
	scanner  *Scanner
	interval time.Duration
	sink     event.Sink
	onShrink ShrinkFunc
	metrics  Recorder
	log      zerolog.Logger

	prev  event.PortSet
	first bool
}

type WatcherDeps struct {
	Sink     event.Sink
	OnShrink ShrinkFunc
	Metrics  Recorder
	Log      zerolog.Logger
}

func NewWatcher(s *Scanner, interval time.Duration, deps WatcherDeps) (*Watcher, error) {
	if s == nil || deps.Sink == nil {
		return nil, errors.New("watcher: scanner and sink required")
	}
	if interval <= 0 {
		return nil, errors.New("watcher: interval must be > 0")
	}
	if deps.OnShrink == nil {
		deps.OnShrink = func(context.Context, event.PortSet, event.PortSet) {}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}

	return &Watcher{
		scanner:  s,
		interval: interval,
		sink:     deps.Sink,
		onShrink: deps.OnShrink,
		metrics:  deps.Metrics,
		log:      deps.Log.With().Str("component", "watcher").Logger(),
		first:    true,
	}, nil
}

// Run ticks until ctx is cancelled or the sink is gone.
// The first tick happens immediately.
func (w *Watcher) Run(ctx context.Context) error {
	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		if err := w.Tick(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// Tick performs one enumeration and comparison.
// Only a gone sink is returned as an error.
func (w *Watcher) Tick(ctx context.Context) error {
	current, err := w.scanner.Scan()
	if err != nil {
		w.log.Warn().Err(err).Msg("enumeration failed, tick skipped")
		return nil
	}

	prev := w.prev
	prevLen := prev.Len()
	first := w.first

	switch {
	case first, current.Len() > prevLen:
		if err := w.publish(ctx, current); err != nil {
			return err
		}

	case current.Len() < prevLen:
		if err := w.publish(ctx, current); err != nil {
			return err
		}
		w.log.Debug().Int("before", prevLen).Int("after", current.Len()).Msg("transport removed")
		w.onShrink(ctx, prev, current)

	default:
		// same cardinality
	}
	return nil
}

func (w *Watcher) publish(ctx context.Context, ports event.PortSet) error {
	if err := w.sink.Emit(ctx, event.PortsChanged{Ports: ports}); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	w.prev = ports
	w.first = false
	w.metrics.PortsSeen(ports.Len())
	return nil
}
