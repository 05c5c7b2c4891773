// internal/session/rtu.go
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/modbus-sensorlink/internal/config"
)

var (
	errNoTransport = errors.New("no transport selected")
	errClosed      = fmt.Errorf("session closed: %w", os.ErrClosed)
)

// registerClient is the subset of modbus.Client a session needs.
type registerClient interface {
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteSingleRegister(address, value uint16) ([]byte, error)
}

// rtuSession implements Session over one goburrow RTU handler.
// Requests are serialized: a request abandoned by its context still owns
// the line until the handler timeout releases it.
type rtuSession struct {
	mu     sync.Mutex
	client registerClient
	closer io.Closer

	transport string
	address   uint8
	holding   bool
	closed    bool
}

func dialRTU(transport string, address uint8, st Settings, logger *log.Logger) (*rtuSession, error) {
	h := modbus.NewRTUClientHandler(transport)
	h.BaudRate = st.BaudRate
	h.DataBits = st.DataBits
	h.Parity = st.Parity
	h.StopBits = st.StopBits
	h.SlaveId = address
	h.Timeout = st.Timeout
	h.Logger = logger

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return newRTUSession(modbus.NewClient(h), h, transport, address, st.Function), nil
}

func newRTUSession(c registerClient, closer io.Closer, transport string, address uint8, function string) *rtuSession {
	return &rtuSession{
		client:    c,
		closer:    closer,
		transport: transport,
		address:   address,
		holding:   function == config.FunctionHolding,
	}
}

// ---- Session interface ----

func (s *rtuSession) ReadRegisters(ctx context.Context, offset, count uint16) ([]uint16, error) {
	if count == 0 {
		return nil, nil
	}

	raw, err := s.do(ctx, func() ([]byte, error) {
		if s.holding {
			return s.client.ReadHoldingRegisters(offset, count)
		}
		return s.client.ReadInputRegisters(offset, count)
	})
	if err != nil {
		return nil, opError("read", s.transport, s.address, offset, err)
	}

	if len(raw) != 2*int(count) {
		return nil, &Error{
			Op:        "read",
			Transport: s.transport,
			Address:   s.address,
			Offset:    offset,
			Kind:      ErrProtocolError,
			Err:       fmt.Errorf("short response: got %d bytes, want %d", len(raw), 2*int(count)),
		}
	}
	return unpackRegisters(raw), nil
}

func (s *rtuSession) WriteSingleRegister(ctx context.Context, offset, value uint16) error {
	_, err := s.do(ctx, func() ([]byte, error) {
		return s.client.WriteSingleRegister(offset, value)
	})
	return opError("write", s.transport, s.address, offset, err)
}

// Close releases the transport. Safe to call more than once.
func (s *rtuSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ---- internal request helper ----

func (s *rtuSession) do(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		// the handler reconnects lazily, never let it reopen a closed session
		if s.closed {
			done <- result{err: errClosed}
			return
		}
		data, err := fn()
		done <- result{data: data, err: err}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ---- helpers (pure geometry) ----

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
