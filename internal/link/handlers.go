// internal/link/handlers.go
package link

import (
	"context"
	"fmt"

	"github.com/tamzrod/modbus-sensorlink/internal/actions"
	"github.com/tamzrod/modbus-sensorlink/internal/event"
	"github.com/tamzrod/modbus-sensorlink/internal/session"
	"github.com/tamzrod/modbus-sensorlink/internal/status"
)

// ---- connection ----

func (d *Dispatcher) handleConnect(ctx context.Context, transport string, address uint8) error {
	log := d.log.With().Str("transport", transport).Uint8("address", address).Logger()

	// one poller per line
	d.deps.State.Disconnect()
	d.retire(true)

	s, err := d.deps.Opener.Open(ctx, transport, address)
	if err != nil {
		log.Warn().Err(err).Msg("connect failed")
		d.deps.Metrics.SetConnected(false)
		if err := d.emit(ctx, event.NewError(err, "connect %s", transport)); err != nil {
			return err
		}
		return d.emit(ctx, event.DisconnectedUIState{})
	}

	gen := d.deps.State.Connect(transport, address)
	if err := d.emit(ctx, event.ConnectedUIState{Transport: transport, Address: address}); err != nil {
		d.deps.State.Disconnect()
		_ = s.Close()
		return err
	}

	if err := d.startPoller(ctx, gen, s); err != nil {
		log.Error().Err(err).Msg("poller not started")
		d.disconnect()
		if err := d.emit(ctx, event.NewError(err, "connect %s", transport)); err != nil {
			return err
		}
		return d.emit(ctx, event.DisconnectedUIState{})
	}

	d.deps.Metrics.SetConnected(true)
	log.Info().Uint64("generation", gen).Msg("connected")
	return nil
}

func (d *Dispatcher) handleUpdateSensor(ctx context.Context, c UpdateSensor) error {
	d.log.Info().
		Str("transport", c.Transport).
		Uint8("address", c.Address).
		Msg("sensor target updated")
	return d.handleConnect(ctx, c.Transport, c.Address)
}

func (d *Dispatcher) handleDisconnect(ctx context.Context) error {
	if d.disconnect() {
		d.log.Info().Msg("disconnected")
	}
	if err := d.emit(ctx, event.DisconnectedUIState{}); err != nil {
		return err
	}

	ports, err := d.deps.Scanner.Scan()
	if err != nil {
		d.log.Warn().Err(err).Msg("port snapshot after disconnect failed")
		return nil
	}
	return d.emit(ctx, event.PortsChanged{Ports: ports})
}

// ---- device actions ----

func (d *Dispatcher) handleNullpunkt(ctx context.Context, c Nullpunkt) error {
	return d.runAction(ctx, actions.TagNullpunkt, func() error {
		return d.deps.Actions.Nullpunkt(ctx, c.Transport, c.Address)
	})
}

func (d *Dispatcher) handleMessgas(ctx context.Context, c Messgas) error {
	return d.runAction(ctx, actions.TagMessgas, func() error {
		return d.deps.Actions.Messgas(ctx, c.Transport, c.Address)
	})
}

func (d *Dispatcher) handleWorkingMode(ctx context.Context, c NewWorkingMode) error {
	return d.runAction(ctx, actions.TagWorkingMode, func() error {
		return d.deps.Actions.SetWorkingMode(ctx, c.Transport, c.Address, c.Mode)
	})
}

func (d *Dispatcher) handleModbusAddress(ctx context.Context, c NewModbusAddress) error {
	return d.runAction(ctx, actions.TagModbusAddress, func() error {
		return d.deps.Actions.SetModbusAddress(ctx, c.Transport, c.Address, c.NewAddress)
	})
}

// runAction never touches the connection state.
func (d *Dispatcher) runAction(ctx context.Context, tag string, fn func() error) error {
	err := fn()
	d.deps.Metrics.ActionDone(tag, err)
	return d.emit(ctx, event.ActionResult{Tag: tag, Err: err})
}

// ---- notices ----

func (d *Dispatcher) onPollFailed(ctx context.Context, n pollFailed) error {
	if !d.deps.State.Active(n.gen) {
		d.log.Debug().Uint64("generation", n.gen).Msg("stale poll failure ignored")
		return nil
	}

	d.log.Warn().Err(n.err).Uint64("generation", n.gen).Msg("polling failed, disconnected")
	d.disconnect()
	return d.emit(ctx, event.DisconnectedUIState{})
}

func (d *Dispatcher) onTransportsShrunk(ctx context.Context, n transportsShrunk) error {
	snap := d.deps.State.Snapshot()
	if snap.Connection != status.Connected || !n.lost(snap.Transport) {
		return nil
	}

	d.log.Warn().Str("transport", snap.Transport).Msg("active transport removed")
	d.disconnect()

	cause := fmt.Errorf("%w: %s no longer present", session.ErrTransportUnavailable, snap.Transport)
	if err := d.emit(ctx, event.NewError(cause, "transport %s removed", snap.Transport)); err != nil {
		return err
	}
	return d.emit(ctx, event.DisconnectedUIState{})
}
