// internal/link/command.go
package link

// Command is one instruction from the presentation layer.
// The set of variants is closed: only the types in this file implement it.
type Command interface {
	isCommand()
	Name() string
}

// Connect opens a session on transport/address and starts polling.
type Connect struct {
	Transport string
	Address   uint8
}

// Disconnect stops polling. Idempotent.
type Disconnect struct{}

// UpdateSensor re-targets a running connection.
type UpdateSensor struct {
	Transport string
	Address   uint8
}

// Nullpunkt triggers zero-point calibration.
type Nullpunkt struct {
	Transport string
	Address   uint8
}

// Messgas triggers calibration against the reference gas.
type Messgas struct {
	Transport string
	Address   uint8
}

type NewWorkingMode struct {
	Transport string
	Address   uint8
	Mode      uint16
}

type NewModbusAddress struct {
	Transport  string
	Address    uint8
	NewAddress uint8
}

func (Connect) isCommand()          {}
func (Disconnect) isCommand()       {}
func (UpdateSensor) isCommand()     {}
func (Nullpunkt) isCommand()        {}
func (Messgas) isCommand()          {}
func (NewWorkingMode) isCommand()   {}
func (NewModbusAddress) isCommand() {}

func (Connect) Name() string          { return "connect" }
func (Disconnect) Name() string       { return "disconnect" }
func (UpdateSensor) Name() string     { return "update_sensor" }
func (Nullpunkt) Name() string        { return "nullpunkt" }
func (Messgas) Name() string          { return "messgas" }
func (NewWorkingMode) Name() string   { return "new_working_mode" }
func (NewModbusAddress) Name() string { return "new_modbus_address" }
