// internal/link/core_test.go
package link

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
	"github.com/tamzrod/modbus-sensorlink/internal/metrics"
	"github.com/tamzrod/modbus-sensorlink/internal/ports"
	"github.com/tamzrod/modbus-sensorlink/internal/status"
)

// waitEvent returns the first event of the same type as want.
func waitEvent[T event.Event](t *testing.T, ch <-chan event.Event) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if v, ok := ev.(T); ok {
				return v
			}
		case <-deadline:
			var zero T
			t.Fatalf("no %T event", zero)
			return zero
		}
	}
}

func TestCore_AutoconnectAndUnplug(t *testing.T) {
	c := testConfig()
	c.Ports.ScanIntervalMs = 10
	capacity := 64
	c.Channels.EventCapacity = &capacity
	c.Autoconnect.Transport = "/dev/ttyUSB0"
	c.Autoconnect.Address = 247

	var unplugged atomic.Bool
	lister := ports.ListerFunc(func() ([]string, error) {
		if unplugged.Load() {
			return []string{"/dev/ttyS0"}, nil
		}
		return []string{"/dev/ttyS0", "/dev/ttyUSB0"}, nil
	})

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	core, err := New(c, CoreDeps{Opener: newSimulator(), Lister: lister, Metrics: m, Log: zerolog.Nop()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- core.Run(ctx) }()

	connected := waitEvent[event.ConnectedUIState](t, core.Events())
	assert.Equal(t, event.ConnectedUIState{Transport: "/dev/ttyUSB0", Address: 247}, connected)
	waitEvent[event.RegistersUpdated](t, core.Events())

	unplugged.Store(true)

	errEv := waitEvent[event.Error](t, core.Events())
	assert.Contains(t, errEv.Message, "/dev/ttyUSB0 removed")
	waitEvent[event.DisconnectedUIState](t, core.Events())
	assert.Equal(t, status.Disconnected, core.State().Connection)

	core.Sender().Close()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("core did not stop")
	}
}

func TestCore_DetachStopsTasks(t *testing.T) {
	c := testConfig()
	c.Ports.ScanIntervalMs = 10

	core, err := New(c, CoreDeps{
		Opener: newSimulator(),
		Lister: ports.ListerFunc(func() ([]string, error) { return nil, nil }),
		Log:    zerolog.Nop(),
	})
	require.NoError(t, err)

	core.Detach()
	core.Sender().Close()

	done := make(chan error, 1)
	go func() { done <- core.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("core did not stop")
	}
}

func TestCore_SenderBusy(t *testing.T) {
	c := testConfig()
	core, err := New(c, CoreDeps{
		Opener: newSimulator(),
		Lister: ports.ListerFunc(func() ([]string, error) { return nil, nil }),
		Log:    zerolog.Nop(),
	})
	require.NoError(t, err)

	// capacity 1, nobody draining
	require.NoError(t, core.Sender().Send(Disconnect{}))
	assert.ErrorIs(t, core.Sender().Send(Disconnect{}), ErrBusy)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, CoreDeps{})
	assert.Error(t, err)

	_, err = New(testConfig(), CoreDeps{Opener: newSimulator()})
	assert.Error(t, err)
}
