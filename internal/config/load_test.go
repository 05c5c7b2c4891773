// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sensorlink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadAndPrepare(writeFile(t, ""))
	require.NoError(t, err)

	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, "N", cfg.Serial.Parity)
	assert.Equal(t, uint16(49), cfg.Poll.Registers)
	assert.Equal(t, time.Second, cfg.Poll.ReadTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Poll.Interval())
	assert.Equal(t, FunctionInput, cfg.Poll.Function)
	assert.Equal(t, 100*time.Millisecond, cfg.Ports.ScanInterval())
	assert.Equal(t, []string{"/dev/ttyS0"}, cfg.Ports.Exclude)
	assert.False(t, cfg.Actions.Enabled)
	assert.Equal(t, uint16(49), *cfg.Actions.UnlockRegister)
	assert.Equal(t, uint16(10), *cfg.Actions.Nullpunkt.Register)
	assert.Equal(t, uint16(50), *cfg.Actions.ModbusAddress.Register)
	assert.Nil(t, cfg.Actions.UnlockValue)
	assert.Nil(t, cfg.Actions.Nullpunkt.Value)
	assert.Nil(t, cfg.Actions.Messgas.Value)
	assert.Equal(t, 1, *cfg.Channels.CommandCapacity)
	assert.Equal(t, 0, *cfg.Channels.EventCapacity)
	assert.False(t, cfg.MQTT.Enabled())
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("SENSORLINK_TEST_PORT", "/dev/ttyUSB3")

	cfg, err := LoadAndPrepare(writeFile(t, `
autoconnect:
  transport: ${SENSORLINK_TEST_PORT}
  address: 247
poll:
  registers: 50
  interval_ms: 0
`))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB3", cfg.Autoconnect.Transport)
	assert.Equal(t, uint8(247), cfg.Autoconnect.Address)
	assert.Equal(t, uint16(50), cfg.Poll.Registers)
	assert.Zero(t, cfg.Poll.Interval(), "explicit zero pacing must survive normalization")
}

func TestLoad_ZeroActionValuesAreKept(t *testing.T) {
	cfg, err := LoadAndPrepare(writeFile(t, `
actions:
  enabled: true
  unlock_register: 0
  unlock_value: 0
  nullpunkt:
    value: 0
  messgas:
    value: 8000
`))
	require.NoError(t, err)

	assert.Equal(t, uint16(0), *cfg.Actions.UnlockRegister)
	assert.Equal(t, uint16(0), *cfg.Actions.UnlockValue)
	assert.Equal(t, uint16(0), *cfg.Actions.Nullpunkt.Value)
	assert.Equal(t, uint16(8000), *cfg.Actions.Messgas.Value)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "pol:\n  registers: 3\n"))
	assert.ErrorContains(t, err, "config: parse")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadAndPrepare_InvalidValue(t *testing.T) {
	_, err := LoadAndPrepare(writeFile(t, "serial:\n  parity: Q\n"))
	assert.ErrorContains(t, err, "serial.parity")
}
