// internal/status/state.go
package status

import "sync"

// State is the single shared ConnectionState.
//
// Writers: the dispatcher only (Connect, Disconnect).
// Readers: pollers, through Active, at cycle boundaries.
//
// Every Connect starts a new generation. A poller is bound to the generation
// it was started with, so a re-connect retires older pollers.
type State struct {
	mu   sync.Mutex
	snap Snapshot
}

// New returns a Disconnected state at generation 0.
func New() *State {
	return &State{}
}

// Connect marks the state Connected for transport/address and returns the new generation.
func (s *State) Connect(transport string, address uint8) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Generation++
	s.snap.Connection = Connected
	s.snap.Transport = transport
	s.snap.Address = address
	return s.snap.Generation
}

// Disconnect marks the state Disconnected.
// It returns true if the state was Connected before the call.
func (s *State) Disconnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	was := s.snap.Connection == Connected
	s.snap.Connection = Disconnected
	return was
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Current returns the connection value only.
func (s *State) Current() Connection {
	return s.Snapshot().Connection
}

// Active reports whether a poller of generation gen may start another cycle.
func (s *State) Active(gen uint64) bool {
	return s.Snapshot().Active(gen)
}
