// internal/link/core.go
package link

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-sensorlink/internal/actions"
	cfg "github.com/tamzrod/modbus-sensorlink/internal/config"
	"github.com/tamzrod/modbus-sensorlink/internal/event"
	"github.com/tamzrod/modbus-sensorlink/internal/metrics"
	"github.com/tamzrod/modbus-sensorlink/internal/poller"
	"github.com/tamzrod/modbus-sensorlink/internal/ports"
	"github.com/tamzrod/modbus-sensorlink/internal/session"
	"github.com/tamzrod/modbus-sensorlink/internal/status"
)

// CoreDeps are the external collaborators of the core.
// Opener and Lister are the two hardware boundaries.
type CoreDeps struct {
	Opener  session.Opener
	Lister  ports.Lister
	Metrics *metrics.Metrics // optional
	Log     zerolog.Logger
}

// Core wires the dispatcher, the port watcher and the two channels.
type Core struct {
	cmds   chan Command
	events chan event.Event
	done   chan struct{}
	once   sync.Once

	sender      *Sender
	state       *status.State
	dispatcher  *Dispatcher
	watcher     *ports.Watcher
	autoconnect []Command
	log         zerolog.Logger
}

// New builds a core from normalized, validated config.
func New(c *cfg.Config, deps CoreDeps) (*Core, error) {
	if c == nil {
		return nil, errors.New("core: config required")
	}
	if deps.Opener == nil || deps.Lister == nil {
		return nil, errors.New("core: opener and lister required")
	}

	core := &Core{
		cmds:   make(chan Command, *c.Channels.CommandCapacity),
		events: make(chan event.Event, *c.Channels.EventCapacity),
		done:   make(chan struct{}),
		state:  status.New(),
		log:    deps.Log.With().Str("component", "core").Logger(),
	}
	core.sender = newSender(core.cmds)

	sink := event.NewChanSink(core.events, core.done)
	pollCfg := poller.ConfigFrom(c)
	scanner := ports.NewScanner(deps.Lister, c.Ports.Exclude)

	dd := Deps{
		State:   core.state,
		Opener:  deps.Opener,
		Actions: actions.NewRunner(deps.Opener, actions.PlanFrom(c), deps.Log),
		Scanner: scanner,
		Sink:    sink,
		Poll:    pollCfg,
		Log:     deps.Log,
	}
	wd := ports.WatcherDeps{Sink: sink, Log: deps.Log}

	if m := deps.Metrics; m != nil {
		dd.PollSink = m.Sink(pollCfg.StartOffset, sink)
		dd.PollMetrics = m
		dd.Metrics = m
		wd.Metrics = m
	}

	d, err := NewDispatcher(dd)
	if err != nil {
		return nil, err
	}
	core.dispatcher = d

	wd.OnShrink = d.NotifyShrunk
	w, err := ports.NewWatcher(scanner, c.Ports.ScanInterval(), wd)
	if err != nil {
		return nil, err
	}
	core.watcher = w

	if a := c.Autoconnect; a.Transport != "" {
		core.autoconnect = []Command{Connect{Transport: a.Transport, Address: a.Address}}
	}
	return core, nil
}

// Sender returns the write end of the command channel.
func (c *Core) Sender() *Sender { return c.sender }

// Events returns the event channel. It is never closed; Run returning marks
// the end of the stream.
func (c *Core) Events() <-chan event.Event { return c.events }

// Detach tells the core the event consumer is gone.
// Every task that emits afterwards stops with ErrChannelClosed.
func (c *Core) Detach() {
	c.once.Do(func() { close(c.done) })
}

// State is a read-only view for diagnostics.
func (c *Core) State() status.Snapshot { return c.state.Snapshot() }

// Run starts the dispatcher and the port watcher and blocks until both
// have stopped. A closed channel ends only the task that observed it.
func (c *Core) Run(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		return c.stopped("dispatcher", c.dispatcher.Run(ctx, c.cmds, c.autoconnect...))
	})
	g.Go(func() error {
		return c.stopped("watcher", c.watcher.Run(ctx))
	})

	return g.Wait()
}

func (c *Core) stopped(task string, err error) error {
	if err == nil || errors.Is(err, event.ErrChannelClosed) {
		c.log.Debug().Str("task", task).AnErr("reason", err).Msg("task stopped")
		return nil
	}
	return err
}
