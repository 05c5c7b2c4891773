// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// SERIAL LINE
	// ------------------------------------------------------------

	s := cfg.Serial
	if s.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be > 0, got %d", s.BaudRate)
	}
	if s.DataBits < 5 || s.DataBits > 8 {
		return fmt.Errorf("serial.data_bits must be 5..8, got %d", s.DataBits)
	}
	switch strings.ToUpper(s.Parity) {
	case "N", "E", "O":
	default:
		return fmt.Errorf("serial.parity must be N, E or O, got %q", s.Parity)
	}
	if s.StopBits != 1 && s.StopBits != 2 {
		return fmt.Errorf("serial.stop_bits must be 1 or 2, got %d", s.StopBits)
	}

	// ------------------------------------------------------------
	// REGISTER FRAME GEOMETRY
	// ------------------------------------------------------------

	p := cfg.Poll
	if p.Registers == 0 {
		return fmt.Errorf("poll.registers must be > 0")
	}
	// last offset must stay addressable
	if uint32(p.StartOffset)+uint32(p.Registers)-1 > 0xFFFF {
		return fmt.Errorf(
			"poll: start_offset=%d registers=%d exceeds the 16-bit register space",
			p.StartOffset,
			p.Registers,
		)
	}
	if p.ReadTimeoutMs <= 0 {
		return fmt.Errorf("poll.read_timeout_ms must be > 0, got %d", p.ReadTimeoutMs)
	}
	if p.IntervalMs != nil && *p.IntervalMs < 0 {
		return fmt.Errorf("poll.interval_ms must be >= 0, got %d", *p.IntervalMs)
	}
	if p.Function != FunctionInput && p.Function != FunctionHolding {
		return fmt.Errorf("poll.function must be %q or %q, got %q", FunctionInput, FunctionHolding, p.Function)
	}

	// ------------------------------------------------------------
	// PORT WATCHER
	// ------------------------------------------------------------

	if cfg.Ports.ScanIntervalMs <= 0 {
		return fmt.Errorf("ports.scan_interval_ms must be > 0, got %d", cfg.Ports.ScanIntervalMs)
	}

	// ------------------------------------------------------------
	// DEVICE ACTIONS
	// ------------------------------------------------------------

	a := cfg.Actions
	if a.UnlockRegister == nil {
		return fmt.Errorf("actions.unlock_register is not set")
	}
	unlock := *a.UnlockRegister
	for name, reg := range map[string]*uint16{
		"nullpunkt.register":      a.Nullpunkt.Register,
		"messgas.register":        a.Messgas.Register,
		"working_mode.register":   a.WorkingMode.Register,
		"modbus_address.register": a.ModbusAddress.Register,
	} {
		if reg == nil {
			return fmt.Errorf("actions.%s is not set", name)
		}
		if *reg == unlock {
			return fmt.Errorf("actions.%s collides with unlock_register (%d)", name, *reg)
		}
	}
	if a.Enabled {
		for name, v := range map[string]*uint16{
			"unlock_value":    a.UnlockValue,
			"nullpunkt.value": a.Nullpunkt.Value,
			"messgas.value":   a.Messgas.Value,
		} {
			if v == nil {
				return fmt.Errorf("actions.%s is required when actions are enabled", name)
			}
		}
	}

	// ------------------------------------------------------------
	// CHANNELS
	// ------------------------------------------------------------

	if c := cfg.Channels.CommandCapacity; c != nil && *c < 0 {
		return fmt.Errorf("channels.command_capacity must be >= 0, got %d", *c)
	}
	if c := cfg.Channels.EventCapacity; c != nil && *c < 0 {
		return fmt.Errorf("channels.event_capacity must be >= 0, got %d", *c)
	}

	// ------------------------------------------------------------
	// REGISTER MIRROR
	// ------------------------------------------------------------

	if err := validateMirror(cfg.Mirror, cfg.Poll.Registers); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// LOGGING / MQTT / AUTOCONNECT
	// ------------------------------------------------------------

	switch cfg.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", cfg.Logging.Format)
	}
	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0..2, got %d", cfg.MQTT.QoS)
	}
	if cfg.Autoconnect.Transport != "" {
		if cfg.Autoconnect.Address < 1 || cfg.Autoconnect.Address > 247 {
			return fmt.Errorf("autoconnect.address must be 1..247, got %d", cfg.Autoconnect.Address)
		}
	}

	return nil
}

// StatusBlockSize is the fixed register count of one mirror status block.
const StatusBlockSize = 20

type mirrorRange struct {
	name       string
	start, end uint32 // [start, end)
}

// validateMirror rejects empty endpoints, ranges past 65535 and overlapping
// writes into the same endpoint/unit.
func validateMirror(m MirrorConfig, registers uint16) error {
	if !m.Enabled() {
		return nil
	}
	if m.TimeoutMs <= 0 {
		return fmt.Errorf("mirror.timeout_ms must be > 0, got %d", m.TimeoutMs)
	}

	used := map[string][]mirrorRange{}
	claim := func(endpoint string, unit uint8, r mirrorRange) error {
		if r.end > 1<<16 {
			return fmt.Errorf("mirror: %s exceeds register space (%d..%d)", r.name, r.start, r.end-1)
		}
		key := fmt.Sprintf("%s|%d", endpoint, unit)
		for _, o := range used[key] {
			if r.start < o.end && o.start < r.end {
				return fmt.Errorf("mirror: %s overlaps %s on %s unit %d", r.name, o.name, endpoint, unit)
			}
		}
		used[key] = append(used[key], r)
		return nil
	}

	for i, t := range m.Targets {
		name := fmt.Sprintf("targets[%d]", i)
		if t.Endpoint == "" {
			return fmt.Errorf("mirror.%s.endpoint is required", name)
		}
		r := mirrorRange{name: name, start: uint32(t.Offset), end: uint32(t.Offset) + uint32(registers)}
		if err := claim(t.Endpoint, t.UnitID, r); err != nil {
			return err
		}
	}

	if s := m.Status; s != nil {
		if s.Endpoint == "" {
			return fmt.Errorf("mirror.status.endpoint is required")
		}
		start := uint32(s.Slot) * StatusBlockSize
		r := mirrorRange{name: "status", start: start, end: start + StatusBlockSize}
		if err := claim(s.Endpoint, s.UnitID, r); err != nil {
			return err
		}
	}
	return nil
}
