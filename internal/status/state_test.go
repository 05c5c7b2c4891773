// internal/status/state_test.go
package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_BootsDisconnected(t *testing.T) {
	s := New()

	assert.Equal(t, Disconnected, s.Current())
	assert.False(t, s.Active(0))
}

func TestState_ConnectBumpsGeneration(t *testing.T) {
	s := New()

	g1 := s.Connect("/dev/ttyUSB0", 247)
	g2 := s.Connect("/dev/ttyUSB1", 5)

	assert.Equal(t, uint64(1), g1)
	assert.Equal(t, uint64(2), g2)
	assert.False(t, s.Active(g1), "older generation must be retired")
	assert.True(t, s.Active(g2))

	snap := s.Snapshot()
	assert.Equal(t, "/dev/ttyUSB1", snap.Transport)
	assert.Equal(t, uint8(5), snap.Address)
}

func TestState_DisconnectIdempotent(t *testing.T) {
	s := New()
	g := s.Connect("COM3", 247)

	assert.True(t, s.Disconnect())
	assert.False(t, s.Disconnect())
	assert.False(t, s.Active(g))
	assert.Equal(t, g, s.Snapshot().Generation, "disconnect keeps the generation")
}

func TestState_ConcurrentReaders(t *testing.T) {
	s := New()
	g := s.Connect("COM3", 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Active(g)
			}
		}()
	}
	s.Disconnect()
	wg.Wait()

	assert.Equal(t, Disconnected, s.Current())
}

func TestConnection_String(t *testing.T) {
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "unknown", Connection(9).String())
}
