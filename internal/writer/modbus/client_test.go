// internal/writer/modbus/client_test.go
package modbus

import (
	"bytes"
	"testing"
	"time"
)

func TestPackRegisters_BigEndian(t *testing.T) {
	got := packRegisters([]uint16{0x0102, 0xA0FF, 0})
	want := []byte{0x01, 0x02, 0xA0, 0xFF, 0x00, 0x00}

	if !bytes.Equal(got, want) {
		t.Fatalf("packRegisters = % x, want % x", got, want)
	}
}

func TestNewEndpointClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewEndpointClient(Config{Timeout: time.Second}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}

func TestNewEndpointClient_DoesNotDial(t *testing.T) {
	// nothing listens here; construction must still succeed
	c, err := NewEndpointClient(Config{Endpoint: "127.0.0.1:1", Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
