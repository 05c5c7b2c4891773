// cmd/sensorlink/events.go
package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
)

// fanout copies every event to each consumer. A consumer that is not
// keeping up loses the event instead of stalling the core.
func fanout(ctx context.Context, log zerolog.Logger, in <-chan event.Event, outs []chan<- event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-in:
			for i, out := range outs {
				select {
				case out <- ev:
				default:
					log.Debug().Int("consumer", i).Str("kind", ev.Kind()).Msg("event dropped")
				}
			}
		}
	}
}

// logEvents is the always-on consumer.
func logEvents(ctx context.Context, log zerolog.Logger, in <-chan event.Event) {
	log = log.With().Str("component", "events").Logger()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-in:
			switch e := ev.(type) {
			case event.ConnectedUIState:
				log.Info().Str("transport", e.Transport).Uint8("address", e.Address).Msg("connected")
			case event.DisconnectedUIState:
				log.Info().Msg("disconnected")
			case event.Error:
				log.Warn().Err(e.Err).Msg(e.Message)
			case event.PortsChanged:
				log.Info().Strs("ports", []string(e.Ports)).Msg("ports changed")
			case event.RegistersUpdated:
				log.Debug().Interface("registers", []uint16(e.Frame)).Msg("registers updated")
			case event.ActionResult:
				log.Info().Str("action", e.Tag).Bool("ok", e.OK()).AnErr("error", e.Err).Msg("action result")
			}
		}
	}
}
