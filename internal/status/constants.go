// internal/status/constants.go
package status

// Connection is the shared connection state.
// Exactly two values. The numeric codes are exported as a metric.
type Connection uint16

// ---- CONNECTION CODES ----

// Disconnected means no session is live. It is the boot state.
const Disconnected Connection = 0

// Connected means a session is live and a poller may run.
const Connected Connection = 1

func (c Connection) String() string {
	switch c {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
