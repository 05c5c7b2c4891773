// internal/event/sink.go
package event

import "context"

// Sink receives events. Emit blocks until the event is accepted or the
// receiving side is gone, in which case it returns ErrChannelClosed.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// ChanSink delivers events on a channel drained by the presentation layer.
type ChanSink struct {
	ch   chan<- Event
	done <-chan struct{}
}

// NewChanSink returns a sink writing to ch. A closed done channel marks the
// consumer as gone.
func NewChanSink(ch chan<- Event, done <-chan struct{}) *ChanSink {
	return &ChanSink{ch: ch, done: done}
}

func (s *ChanSink) Emit(ctx context.Context, ev Event) error {
	select {
	case s.ch <- ev:
		return nil
	case <-s.done:
		return ErrChannelClosed
	case <-ctx.Done():
		return ErrChannelClosed
	}
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Emit(ctx context.Context, ev Event) error { return f(ctx, ev) }
