// internal/link/sender.go
package link

import (
	"context"
	"errors"
	"sync"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
)

// ErrBusy is returned by Send when the dispatcher cannot accept a command
// right now. The caller treats it as a failed attempt.
var ErrBusy = errors.New("dispatcher busy")

// Sender is the write end of the command channel. Safe for concurrent use.
type Sender struct {
	mu     sync.RWMutex
	ch     chan Command
	closed bool

	// done releases blocked SendContext calls so Close can take mu
	done     chan struct{}
	doneOnce sync.Once
}

func newSender(ch chan Command) *Sender {
	return &Sender{ch: ch, done: make(chan struct{})}
}

// Send submits cmd without blocking.
func (s *Sender) Send(cmd Command) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return event.ErrChannelClosed
	}
	select {
	case s.ch <- cmd:
		return nil
	default:
		return ErrBusy
	}
}

// SendContext blocks until cmd is accepted or ctx is done.
func (s *Sender) SendContext(ctx context.Context, cmd Command) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return event.ErrChannelClosed
	}
	select {
	case s.ch <- cmd:
		return nil
	case <-s.done:
		return event.ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the command channel. The dispatcher stops once it has
// drained the pending commands. A SendContext still waiting for the
// dispatcher returns ErrChannelClosed. Safe to call more than once.
func (s *Sender) Close() {
	s.doneOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
