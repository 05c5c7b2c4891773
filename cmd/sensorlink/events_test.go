// cmd/sensorlink/events_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
)

func TestFanout_CopiesToEveryConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan event.Event)
	a := make(chan event.Event, 1)
	b := make(chan event.Event, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		fanout(ctx, zerolog.Nop(), in, []chan<- event.Event{a, b})
	}()

	in <- event.DisconnectedUIState{}

	assert.Equal(t, event.DisconnectedUIState{}, <-a)
	assert.Equal(t, event.DisconnectedUIState{}, <-b)

	cancel()
	<-done
}

func TestFanout_FullConsumerLosesEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan event.Event)
	slow := make(chan event.Event) // never drained
	fast := make(chan event.Event, 2)

	go fanout(ctx, zerolog.Nop(), in, []chan<- event.Event{slow, fast})

	in <- event.RegistersUpdated{Frame: event.Frame{1}}
	in <- event.RegistersUpdated{Frame: event.Frame{2}}

	require.Equal(t, event.RegistersUpdated{Frame: event.Frame{1}}, <-fast)
	require.Equal(t, event.RegistersUpdated{Frame: event.Frame{2}}, <-fast)
}

func TestLogEvents_WritesAndStops(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan event.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logEvents(ctx, log, in)
	}()

	in <- event.ConnectedUIState{Transport: "/dev/ttyUSB0", Address: 7}
	in <- event.ActionResult{Tag: "nullpunkt", Err: errors.New("boom")}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("logEvents did not stop")
	}

	out := buf.String()
	assert.Contains(t, out, `"transport":"/dev/ttyUSB0"`)
	assert.Contains(t, out, `"action":"nullpunkt"`)
	assert.Contains(t, out, `"ok":false`)
}
