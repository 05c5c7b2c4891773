// internal/writer/types.go
package writer

import cfg "github.com/tamzrod/modbus-sensorlink/internal/config"

// Target is one Modbus TCP destination of the frame.
type Target struct {
	Endpoint string
	UnitID   uint8
	Offset   uint16 // holding register receiving frame[0]
}

// StatusPlan places the status block of the sensor link.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	Slot       uint16
	DeviceName string
}

// Plan is the fully-built mirror plan.
type Plan struct {
	Targets []Target
	Status  *StatusPlan // nil = no status block
}

// Status is exactly what the status writer is allowed to deliver.
type Status struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
}

// ---- STATUS BLOCK LAYOUT ----
// Protocol-locked, not configurable.

const SlotsPerDevice = cfg.StatusBlockSize

const (
	SlotHealthCode      = 0
	SlotLastErrorCode   = 1
	SlotSecondsInError  = 2
	SlotDeviceNameStart = 11
	SlotDeviceNameSlots = 8
	DeviceNameMaxChars  = 16
)

// ---- HEALTH CODES ----

const (
	HealthUnknown  uint16 = 0
	HealthOK       uint16 = 1
	HealthError    uint16 = 2
	HealthDisabled uint16 = 4 // disconnected on request
)

// endpointClient is the exact contract the writers use.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
