// internal/link/notice.go
package link

import "github.com/tamzrod/modbus-sensorlink/internal/event"

// notice is an internal message to the dispatcher. Notices never come from
// the presentation layer; they let the dispatcher remain the only writer of
// the connection state.
type notice interface{ isNotice() }

// pollFailed: the poller of generation gen stopped on a read failure.
type pollFailed struct {
	gen uint64
	err error
}

// transportsShrunk: the port watcher saw the transport set shrink from
// prev to current.
type transportsShrunk struct {
	prev    event.PortSet
	current event.PortSet
}

// lost reports whether transport was listed before and is gone now.
// A transport the enumerator never listed (a symlink, an alias) is not
// judged by the scan.
func (n transportsShrunk) lost(transport string) bool {
	return n.prev.Contains(transport) && !n.current.Contains(transport)
}

func (pollFailed) isNotice()       {}
func (transportsShrunk) isNotice() {}
