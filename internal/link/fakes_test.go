// internal/link/fakes_test.go
package link

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-sensorlink/internal/actions"
	"github.com/tamzrod/modbus-sensorlink/internal/config"
	"github.com/tamzrod/modbus-sensorlink/internal/event"
	"github.com/tamzrod/modbus-sensorlink/internal/poller"
	"github.com/tamzrod/modbus-sensorlink/internal/ports"
	"github.com/tamzrod/modbus-sensorlink/internal/session"
	"github.com/tamzrod/modbus-sensorlink/internal/status"
)

// ---- simulated sensor ----

type target struct {
	transport string
	address   uint8
}

type regWrite struct {
	target
	reg, val uint16
}

// simulator answers every register read with address*100 + offset.
type simulator struct {
	mu       sync.Mutex
	openErr  map[string]error
	readErr  error
	writeErr map[uint16]error
	opened   []target
	writes   []regWrite
	sessions []*simSession
}

func newSimulator() *simulator {
	return &simulator{openErr: map[string]error{}, writeErr: map[uint16]error{}}
}

func (s *simulator) Open(_ context.Context, transport string, address uint8) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.openErr[transport]; err != nil {
		return nil, &session.Error{Op: "open", Transport: transport, Address: address, Kind: session.ErrTransportUnavailable, Err: err}
	}
	t := target{transport, address}
	s.opened = append(s.opened, t)
	ss := &simSession{sim: s, target: t}
	s.sessions = append(s.sessions, ss)
	return ss, nil
}

func (s *simulator) failReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

func (s *simulator) failWrite(reg uint16, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr[reg] = err
}

func (s *simulator) writesSnapshot() []regWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]regWrite(nil), s.writes...)
}

func (s *simulator) openedSnapshot() []target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]target(nil), s.opened...)
}

type simSession struct {
	sim    *simulator
	target target

	mu     sync.Mutex
	closed bool
}

func (ss *simSession) ReadRegisters(_ context.Context, offset, count uint16) ([]uint16, error) {
	ss.sim.mu.Lock()
	err := ss.sim.readErr
	ss.sim.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	for i := range out {
		out[i] = uint16(ss.target.address)*100 + offset + uint16(i)
	}
	return out, nil
}

func (ss *simSession) WriteSingleRegister(_ context.Context, reg, val uint16) error {
	ss.sim.mu.Lock()
	defer ss.sim.mu.Unlock()
	ss.sim.writes = append(ss.sim.writes, regWrite{ss.target, reg, val})
	return ss.sim.writeErr[reg]
}

func (ss *simSession) Close() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.closed = true
	return nil
}

func (ss *simSession) isClosed() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.closed
}

// ---- harness ----

type harness struct {
	t      *testing.T
	sim    *simulator
	state  *status.State
	d      *Dispatcher
	cmds   chan Command
	events chan event.Event
	cancel context.CancelFunc
	runErr chan error
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.Poll.Registers = 4
	c.Poll.ReadTimeoutMs = 50
	interval := 10
	c.Poll.IntervalMs = &interval
	unlock, zero, span := uint16(1234), uint16(300), uint16(8000)
	c.Actions.Enabled = true
	c.Actions.UnlockValue = &unlock
	c.Actions.Nullpunkt.Value = &zero
	c.Actions.Messgas.Value = &span
	config.Normalize(c)
	return c
}

func startHarness(t *testing.T, listed ...string) *harness {
	t.Helper()

	c := testConfig()
	sim := newSimulator()
	events := make(chan event.Event, 256)
	state := status.New()

	d, err := NewDispatcher(Deps{
		State:   state,
		Opener:  sim,
		Actions: actions.NewRunner(sim, actions.PlanFrom(c), zerolog.Nop()),
		Scanner: ports.NewScanner(ports.ListerFunc(func() ([]string, error) { return listed, nil }), c.Ports.Exclude),
		Sink:    event.NewChanSink(events, nil),
		Poll:    poller.ConfigFrom(c),
		Log:     zerolog.Nop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		t:      t,
		sim:    sim,
		state:  state,
		d:      d,
		cmds:   make(chan Command),
		events: events,
		cancel: cancel,
		runErr: make(chan error, 1),
	}
	go func() { h.runErr <- d.Run(ctx, h.cmds) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-h.runErr:
		case <-time.After(2 * time.Second):
			t.Error("dispatcher did not stop")
		}
	})
	return h
}

func (h *harness) send(cmd Command) {
	h.t.Helper()
	select {
	case h.cmds <- cmd:
	case <-time.After(2 * time.Second):
		h.t.Fatalf("command %s not accepted", cmd.Name())
	}
}

// next returns the next event that is not a frame.
func (h *harness) next() event.Event {
	h.t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-h.events:
			if _, ok := ev.(event.RegistersUpdated); ok {
				continue
			}
			return ev
		case <-deadline:
			h.t.Fatal("no event")
			return nil
		}
	}
}

// waitFrame returns the first frame matching pred.
func (h *harness) waitFrame(pred func(event.Frame) bool) event.Frame {
	h.t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-h.events:
			if ru, ok := ev.(event.RegistersUpdated); ok && pred(ru.Frame) {
				return ru.Frame
			}
		case <-deadline:
			h.t.Fatal("no matching frame")
			return nil
		}
	}
}

// quiet asserts that no non-frame event arrives within d.
func (h *harness) quiet(d time.Duration) {
	h.t.Helper()
	deadline := time.After(d)
	for {
		select {
		case ev := <-h.events:
			if _, ok := ev.(event.RegistersUpdated); !ok {
				h.t.Fatalf("unexpected event %T", ev)
			}
		case <-deadline:
			return
		}
	}
}

func anyFrame(event.Frame) bool { return true }
