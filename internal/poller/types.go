// internal/poller/types.go
package poller

import (
	"fmt"
	"time"

	"github.com/tamzrod/modbus-sensorlink/internal/session"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Registers   uint16        // frame length N
	StartOffset uint16        // offset of frame[0]
	ReadTimeout time.Duration // bound of every single-register request
	Interval    time.Duration // pacing between cycles, 0 = back-to-back
}

// Observer is the read-only view of the shared connection state.
type Observer interface {
	Active(gen uint64) bool
}

// FailureFunc is called once when a poller stops on a read failure.
type FailureFunc func(gen uint64, err error)

// Recorder receives poll statistics. Nil-safe via nopRecorder.
type Recorder interface {
	CycleCompleted(d time.Duration)
	ReadFailed(offset uint16, kind error)
}

type nopRecorder struct{}

func (nopRecorder) CycleCompleted(time.Duration) {}
func (nopRecorder) ReadFailed(uint16, error)     {}

// ReadError names the register offset that aborted a cycle.
type ReadError struct {
	Offset uint16
	Kind   error // one of the session error kinds
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("register %d could not be read: %v", e.Offset, e.Err)
}

func (e *ReadError) Unwrap() []error { return []error{e.Kind, e.Err} }

func newReadError(offset uint16, err error) *ReadError {
	return &ReadError{Offset: offset, Kind: session.Classify(err), Err: err}
}
