// internal/link/dispatcher.go
package link

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
	"github.com/tamzrod/modbus-sensorlink/internal/poller"
	"github.com/tamzrod/modbus-sensorlink/internal/session"
	"github.com/tamzrod/modbus-sensorlink/internal/status"
)

// ActionRunner executes one-shot device writes.
type ActionRunner interface {
	Nullpunkt(ctx context.Context, transport string, address uint8) error
	Messgas(ctx context.Context, transport string, address uint8) error
	SetWorkingMode(ctx context.Context, transport string, address uint8, mode uint16) error
	SetModbusAddress(ctx context.Context, transport string, address, newAddress uint8) error
}

// PortScanner produces a fresh transport snapshot on demand.
type PortScanner interface {
	Scan() (event.PortSet, error)
}

// Recorder receives dispatcher statistics.
type Recorder interface {
	SetConnected(on bool)
	ActionDone(tag string, err error)
	CommandHandled(name string)
}

type nopRecorder struct{}

func (nopRecorder) SetConnected(bool)        {}
func (nopRecorder) ActionDone(string, error) {}
func (nopRecorder) CommandHandled(string)    {}

// Deps are the collaborators of the dispatcher.
type Deps struct {
	State   *status.State
	Opener  session.Opener
	Actions ActionRunner
	Scanner PortScanner
	Sink    event.Sink

	Poll        poller.Config
	PollSink    event.Sink // sink handed to pollers; defaults to Sink
	PollMetrics poller.Recorder

	Metrics Recorder
	Log     zerolog.Logger
}

// pollerHandle tracks one poller goroutine.
type pollerHandle struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Dispatcher processes commands one at a time in submission order.
// It is the only writer of the connection state.
type Dispatcher struct {
	deps    Deps
	notices chan notice
	stopped chan struct{}
	log     zerolog.Logger

	// owned by the Run goroutine
	current *pollerHandle
}

func NewDispatcher(deps Deps) (*Dispatcher, error) {
	if deps.State == nil || deps.Opener == nil || deps.Actions == nil || deps.Scanner == nil || deps.Sink == nil {
		return nil, errors.New("dispatcher: state, opener, actions, scanner and sink required")
	}
	if deps.PollSink == nil {
		deps.PollSink = deps.Sink
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}

	return &Dispatcher{
		deps:    deps,
		notices: make(chan notice),
		stopped: make(chan struct{}),
		log:     deps.Log.With().Str("component", "dispatcher").Logger(),
	}, nil
}

// Run handles initial commands first, then reads cmds until ctx is cancelled
// or cmds is closed. Running pollers are retired and awaited on return.
func (d *Dispatcher) Run(ctx context.Context, cmds <-chan Command, initial ...Command) error {
	defer close(d.stopped)
	defer d.shutdown()

	for _, cmd := range initial {
		if err := d.dispatch(ctx, cmd); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case cmd, ok := <-cmds:
			if !ok {
				d.log.Debug().Msg("command channel closed")
				return event.ErrChannelClosed
			}
			if err := d.dispatch(ctx, cmd); err != nil {
				return err
			}

		case n := <-d.notices:
			if err := d.apply(ctx, n); err != nil {
				return err
			}
		}
	}
}

// NotifyShrunk is the port watcher's shrink hook.
func (d *Dispatcher) NotifyShrunk(ctx context.Context, prev, current event.PortSet) {
	select {
	case d.notices <- transportsShrunk{prev: prev, current: current}:
	case <-d.stopped:
	case <-ctx.Done():
	}
}

// dispatch routes one command to its handler.
// Only a gone event consumer is returned as an error.
func (d *Dispatcher) dispatch(ctx context.Context, cmd Command) error {
	d.log.Debug().Str("command", cmd.Name()).Msg("command received")
	d.deps.Metrics.CommandHandled(cmd.Name())

	switch c := cmd.(type) {
	case Connect:
		return d.handleConnect(ctx, c.Transport, c.Address)
	case UpdateSensor:
		return d.handleUpdateSensor(ctx, c)
	case Disconnect:
		return d.handleDisconnect(ctx)
	case Nullpunkt:
		return d.handleNullpunkt(ctx, c)
	case Messgas:
		return d.handleMessgas(ctx, c)
	case NewWorkingMode:
		return d.handleWorkingMode(ctx, c)
	case NewModbusAddress:
		return d.handleModbusAddress(ctx, c)
	default:
		d.log.Warn().Str("command", fmt.Sprintf("%T", cmd)).Msg("unknown command ignored")
		return nil
	}
}

func (d *Dispatcher) apply(ctx context.Context, n notice) error {
	switch n := n.(type) {
	case pollFailed:
		return d.onPollFailed(ctx, n)
	case transportsShrunk:
		return d.onTransportsShrunk(ctx, n)
	}
	return nil
}

func (d *Dispatcher) emit(ctx context.Context, ev event.Event) error {
	if err := d.deps.Sink.Emit(ctx, ev); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// ---- poller lifecycle ----

func (d *Dispatcher) startPoller(ctx context.Context, gen uint64, s session.Session) error {
	pctx, cancel := context.WithCancel(ctx)
	h := &pollerHandle{gen: gen, cancel: cancel, done: make(chan struct{})}

	p, err := poller.New(d.deps.Poll, s, poller.Deps{
		State:      d.deps.State,
		Generation: gen,
		Sink:       d.deps.PollSink,
		OnFailure: func(gen uint64, err error) {
			select {
			case d.notices <- pollFailed{gen: gen, err: err}:
			case <-pctx.Done():
			}
		},
		Metrics: d.deps.PollMetrics,
		Log:     d.log,
	})
	if err != nil {
		cancel()
		_ = s.Close()
		return err
	}

	d.current = h
	go func() {
		defer close(h.done)
		p.Run(pctx)
	}()
	return nil
}

// retire stops the current poller from starting another cycle.
// With wait it also blocks until the poller goroutine has exited, which
// bounds the wait by one in-flight cycle.
func (d *Dispatcher) retire(wait bool) {
	h := d.current
	if h == nil {
		return
	}
	h.cancel()
	if !wait {
		return
	}
	<-h.done
	d.current = nil
}

func (d *Dispatcher) shutdown() {
	d.deps.State.Disconnect()
	d.retire(true)
	d.deps.Metrics.SetConnected(false)
}

// disconnect is the single path from Connected to Disconnected.
func (d *Dispatcher) disconnect() bool {
	was := d.deps.State.Disconnect()
	d.retire(false)
	d.deps.Metrics.SetConnected(false)
	return was
}
