package netpoll

import "errors"

// Errors for poller operations.
var (
	ErrClosed      = errors.New("netpoll: poller is closed")
	ErrUnsupported = errors.New("netpoll: platform not supported")
)

// Event is one readiness notification.
//
// Readable is also set on hang-up and error conditions so the owner
// performs a read and observes EOF or the error.
type Event struct {
	Fd       int
	Readable bool
	Writable bool
}

// DefaultBacklog is the listen queue length.
const DefaultBacklog = 1024
