// internal/config/normalize.go
package config

// Defaults. Register numbers follow the NE4 register table; the values the
// actions write are deliberately absent.
const (
	DefaultBaudRate       = 9600
	DefaultDataBits       = 8
	DefaultParity         = "N"
	DefaultStopBits       = 1
	DefaultRegisters      = 49
	DefaultReadTimeoutMs  = 1000
	DefaultIntervalMs     = 500
	DefaultFunction       = FunctionInput
	DefaultScanIntervalMs = 100
	DefaultExcludedPort   = "/dev/ttyS0"

	DefaultUnlockRegister        = 49
	DefaultNullpunktRegister     = 10
	DefaultMessgasRegister       = 12
	DefaultWorkingModeRegister   = 99
	DefaultModbusAddressRegister = 50

	DefaultCommandCapacity = 1
	DefaultEventCapacity   = 0

	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	DefaultMetricsPath = "/metrics"
	DefaultMQTTClient  = "sensorlink"
	DefaultMQTTPrefix  = "sensorlink"

	DefaultMirrorTimeoutMs = 1000
)

const (
	FunctionInput   = "input"
	FunctionHolding = "holding"
)

// Normalize fills defaults for every unset field.
// It is allowed to mutate configuration.
// It MUST be called before Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ---- serial ----
	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = DefaultBaudRate
	}
	if cfg.Serial.DataBits == 0 {
		cfg.Serial.DataBits = DefaultDataBits
	}
	if cfg.Serial.Parity == "" {
		cfg.Serial.Parity = DefaultParity
	}
	if cfg.Serial.StopBits == 0 {
		cfg.Serial.StopBits = DefaultStopBits
	}

	// ---- poll ----
	if cfg.Poll.Registers == 0 {
		cfg.Poll.Registers = DefaultRegisters
	}
	if cfg.Poll.ReadTimeoutMs == 0 {
		cfg.Poll.ReadTimeoutMs = DefaultReadTimeoutMs
	}
	if cfg.Poll.IntervalMs == nil {
		cfg.Poll.IntervalMs = intPtr(DefaultIntervalMs)
	}
	if cfg.Poll.Function == "" {
		cfg.Poll.Function = DefaultFunction
	}

	// ---- ports ----
	if cfg.Ports.ScanIntervalMs == 0 {
		cfg.Ports.ScanIntervalMs = DefaultScanIntervalMs
	}
	// nil = default exclusion; an explicit empty list disables it
	if cfg.Ports.Exclude == nil {
		cfg.Ports.Exclude = []string{DefaultExcludedPort}
	}

	// ---- actions ----
	a := &cfg.Actions
	if a.UnlockRegister == nil {
		a.UnlockRegister = u16Ptr(DefaultUnlockRegister)
	}
	if a.Nullpunkt.Register == nil {
		a.Nullpunkt.Register = u16Ptr(DefaultNullpunktRegister)
	}
	if a.Messgas.Register == nil {
		a.Messgas.Register = u16Ptr(DefaultMessgasRegister)
	}
	if a.WorkingMode.Register == nil {
		a.WorkingMode.Register = u16Ptr(DefaultWorkingModeRegister)
	}
	if a.ModbusAddress.Register == nil {
		a.ModbusAddress.Register = u16Ptr(DefaultModbusAddressRegister)
	}

	// ---- channels ----
	if cfg.Channels.CommandCapacity == nil {
		cfg.Channels.CommandCapacity = intPtr(DefaultCommandCapacity)
	}
	if cfg.Channels.EventCapacity == nil {
		cfg.Channels.EventCapacity = intPtr(DefaultEventCapacity)
	}

	// ---- logging / metrics / mqtt ----
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = DefaultMQTTClient
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = DefaultMQTTPrefix
	}

	// ---- mirror ----
	if cfg.Mirror.TimeoutMs == 0 {
		cfg.Mirror.TimeoutMs = DefaultMirrorTimeoutMs
	}
}

func intPtr(v int) *int       { return &v }
func u16Ptr(v uint16) *uint16 { return &v }
