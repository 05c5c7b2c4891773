// internal/status/snapshot.go
package status

// Snapshot is a consistent read of the shared state.
// It contains no logic.
type Snapshot struct {
	Connection Connection
	Generation uint64
	Transport  string
	Address    uint8
}

// Active reports whether a poller bound to gen may keep running.
func (s Snapshot) Active(gen uint64) bool {
	return s.Connection == Connected && s.Generation == gen
}
