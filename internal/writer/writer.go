// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
)

// frameWriter copies one frame verbatim into every target.
type frameWriter struct {
	targets []Target
	clients map[string]endpointClient
}

func newFrameWriter(plan Plan, clients map[string]endpointClient) *frameWriter {
	return &frameWriter{targets: plan.Targets, clients: clients}
}

// Write attempts every target; failures are collected, not short-circuited.
func (w *frameWriter) Write(frame event.Frame) error {
	var errs []error

	for _, tgt := range w.targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Errorf("writer: missing client for endpoint %s", tgt.Endpoint))
			continue
		}

		if err := cli.WriteRegisters(tgt.UnitID, tgt.Offset, frame); err != nil {
			errs = append(errs, fmt.Errorf("writer: ep=%s unit=%d addr=%d: %w",
				tgt.Endpoint, tgt.UnitID, tgt.Offset, err))
		}
	}

	return errors.Join(errs...)
}
