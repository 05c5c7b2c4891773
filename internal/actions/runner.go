// internal/actions/runner.go
package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-sensorlink/internal/session"
)

// Action tags reported in ActionResult.
const (
	TagNullpunkt     = "nullpunkt"
	TagMessgas       = "messgas"
	TagWorkingMode   = "working_mode"
	TagModbusAddress = "modbus_address"
)

// ErrInvalidAddress is returned for a target address outside 1..247.
var ErrInvalidAddress = session.ErrInvalidAddress

// ErrDisabled is returned for every action while actions are not enabled
// in config.
var ErrDisabled = errors.New("device actions are disabled")

// Runner executes one-shot configuration writes.
// Every action opens its own session and never touches connection state.
type Runner struct {
	opener session.Opener
	plan   Plan
	log    zerolog.Logger
}

func NewRunner(opener session.Opener, plan Plan, log zerolog.Logger) *Runner {
	return &Runner{
		opener: opener,
		plan:   plan,
		log:    log.With().Str("component", "actions").Logger(),
	}
}

// Nullpunkt triggers zero-point calibration.
func (r *Runner) Nullpunkt(ctx context.Context, transport string, address uint8) error {
	return r.unlockAndWrite(ctx, TagNullpunkt, transport, address, r.plan.Nullpunkt)
}

// Messgas triggers calibration against the reference gas.
func (r *Runner) Messgas(ctx context.Context, transport string, address uint8) error {
	return r.unlockAndWrite(ctx, TagMessgas, transport, address, r.plan.Messgas)
}

func (r *Runner) SetWorkingMode(ctx context.Context, transport string, address uint8, mode uint16) error {
	w := Write{Register: r.plan.WorkingModeRegister, Value: mode}
	return r.unlockAndWrite(ctx, TagWorkingMode, transport, address, w)
}

// SetModbusAddress reassigns the device address. The target is validated
// before any IO.
func (r *Runner) SetModbusAddress(ctx context.Context, transport string, address, newAddress uint8) error {
	if newAddress < 1 || newAddress > 247 {
		return fmt.Errorf("%w: got %d", ErrInvalidAddress, newAddress)
	}
	w := Write{Register: r.plan.ModbusAddressRegister, Value: uint16(newAddress)}
	return r.unlockAndWrite(ctx, TagModbusAddress, transport, address, w)
}

// unlockAndWrite: open, best-effort unlock, mutating write, close.
// Only the mutating write decides the outcome.
func (r *Runner) unlockAndWrite(ctx context.Context, tag, transport string, address uint8, w Write) error {
	log := r.log.With().
		Str("action", tag).
		Str("transport", transport).
		Uint8("address", address).
		Logger()

	if !r.plan.Enabled {
		return fmt.Errorf("%s: %w", tag, ErrDisabled)
	}

	s, err := r.opener.Open(ctx, transport, address)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Debug().Err(err).Msg("session close failed")
		}
	}()

	if err := s.WriteSingleRegister(ctx, r.plan.Unlock.Register, r.plan.Unlock.Value); err != nil {
		// some firmware does not expose the unlock register
		log.Debug().Err(err).Uint16("register", r.plan.Unlock.Register).Msg("unlock write ignored")
	}

	if err := s.WriteSingleRegister(ctx, w.Register, w.Value); err != nil {
		log.Warn().Err(err).Uint16("register", w.Register).Msg("action failed")
		return fmt.Errorf("%s: %w", tag, err)
	}

	log.Info().Uint16("register", w.Register).Uint16("value", w.Value).Msg("action applied")
	return nil
}
