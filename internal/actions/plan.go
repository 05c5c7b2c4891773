// internal/actions/plan.go
package actions

import (
	cfg "github.com/tamzrod/modbus-sensorlink/internal/config"
)

// Write is one single-register write.
type Write struct {
	Register uint16
	Value    uint16
}

// Plan is the register layout of the device actions.
// A disabled plan refuses every action before any IO.
type Plan struct {
	Enabled               bool
	Unlock                Write
	Nullpunkt             Write
	Messgas               Write
	WorkingModeRegister   uint16
	ModbusAddressRegister uint16
}

// PlanFrom maps normalized config onto a Plan.
// Validate guarantees the registers are set, and the values too when
// actions are enabled.
func PlanFrom(c *cfg.Config) Plan {
	a := c.Actions
	return Plan{
		Enabled:               a.Enabled,
		Unlock:                Write{Register: *a.UnlockRegister, Value: valueOf(a.UnlockValue)},
		Nullpunkt:             Write{Register: *a.Nullpunkt.Register, Value: valueOf(a.Nullpunkt.Value)},
		Messgas:               Write{Register: *a.Messgas.Register, Value: valueOf(a.Messgas.Value)},
		WorkingModeRegister:   *a.WorkingMode.Register,
		ModbusAddressRegister: *a.ModbusAddress.Register,
	}
}

func valueOf(v *uint16) uint16 {
	if v == nil {
		return 0
	}
	return *v
}
