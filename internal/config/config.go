// internal/config/config.go
package config

import "time"

type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Poll        PollConfig        `yaml:"poll"`
	Ports       PortsConfig       `yaml:"ports"`
	Actions     ActionsConfig     `yaml:"actions"`
	Channels    ChannelsConfig    `yaml:"channels"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Mirror      MirrorConfig      `yaml:"mirror"`
	Autoconnect AutoconnectConfig `yaml:"autoconnect"`
}

// ---- SERIAL LINE ----

type SerialConfig struct {
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"` // "N", "E" or "O"
	StopBits int    `yaml:"stop_bits"`
}

// ---- REGISTER POLLING ----

type PollConfig struct {
	Registers     uint16 `yaml:"registers"`       // frame length N
	StartOffset   uint16 `yaml:"start_offset"`    // offset of frame[0]
	ReadTimeoutMs int    `yaml:"read_timeout_ms"` // per single-register request
	IntervalMs    *int   `yaml:"interval_ms"`     // pacing between cycles; 0 = back-to-back
	Function      string `yaml:"function"`        // "input" (FC4) or "holding" (FC3)
}

func (p PollConfig) ReadTimeout() time.Duration {
	return time.Duration(p.ReadTimeoutMs) * time.Millisecond
}

func (p PollConfig) Interval() time.Duration {
	if p.IntervalMs == nil {
		return 0
	}
	return time.Duration(*p.IntervalMs) * time.Millisecond
}

// ---- PORT WATCHER ----

type PortsConfig struct {
	ScanIntervalMs int      `yaml:"scan_interval_ms"`
	Exclude        []string `yaml:"exclude"`
}

func (p PortsConfig) ScanInterval() time.Duration {
	return time.Duration(p.ScanIntervalMs) * time.Millisecond
}

// ---- DEVICE ACTIONS ----

// ActionsConfig is off by default. The written values are device specific
// and have no defaults; enabling actions requires all of them.
type ActionsConfig struct {
	Enabled        bool           `yaml:"enabled"`
	UnlockRegister *uint16        `yaml:"unlock_register"`
	UnlockValue    *uint16        `yaml:"unlock_value"`
	Nullpunkt      RegisterWrite  `yaml:"nullpunkt"`
	Messgas        RegisterWrite  `yaml:"messgas"`
	WorkingMode    RegisterTarget `yaml:"working_mode"`
	ModbusAddress  RegisterTarget `yaml:"modbus_address"`
}

// RegisterWrite is a fixed register/value pair.
type RegisterWrite struct {
	Register *uint16 `yaml:"register"`
	Value    *uint16 `yaml:"value"`
}

// RegisterTarget is a register whose value comes from the command.
type RegisterTarget struct {
	Register *uint16 `yaml:"register"`
}

// ---- CHANNELS ----

type ChannelsConfig struct {
	CommandCapacity *int `yaml:"command_capacity"`
	EventCapacity   *int `yaml:"event_capacity"`
}

// ---- LOGGING ----

type LoggingConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // console or json
	File   string `yaml:"file"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty = disabled
	Path   string `yaml:"path"`
}

// ---- MQTT BRIDGE ----

type MQTTConfig struct {
	Broker      string `yaml:"broker"` // empty = disabled
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
}

func (m MQTTConfig) Enabled() bool { return m.Broker != "" }

// ---- REGISTER MIRROR ----

// MirrorConfig replicates every published frame into Modbus TCP servers.
type MirrorConfig struct {
	TimeoutMs int                 `yaml:"timeout_ms"`
	Targets   []MirrorTarget      `yaml:"targets"`
	Status    *MirrorStatusConfig `yaml:"status"` // optional status block
}

type MirrorTarget struct {
	Endpoint string `yaml:"endpoint"` // host:port
	UnitID   uint8  `yaml:"unit_id"`
	Offset   uint16 `yaml:"offset"` // holding register of frame[0]
}

type MirrorStatusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	Slot       uint16 `yaml:"slot"` // block index; address = slot * block size
	DeviceName string `yaml:"device_name"`
}

func (m MirrorConfig) Enabled() bool { return len(m.Targets) > 0 || m.Status != nil }

func (m MirrorConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutMs) * time.Millisecond
}

// ---- AUTOCONNECT ----

type AutoconnectConfig struct {
	Transport string `yaml:"transport"` // empty = disabled
	Address   uint8  `yaml:"address"`
}
