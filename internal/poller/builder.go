// internal/poller/builder.go
package poller

import (
	cfg "github.com/tamzrod/modbus-sensorlink/internal/config"
)

// ConfigFrom maps normalized config onto the poller runtime config.
func ConfigFrom(c *cfg.Config) Config {
	return Config{
		Registers:   c.Poll.Registers,
		StartOffset: c.Poll.StartOffset,
		ReadTimeout: c.Poll.ReadTimeout(),
		Interval:    c.Poll.Interval(),
	}
}
