package redisserver

import "time"

// Metrics receives server events. Implementations must be safe for
// concurrent use; CommandDone is called from worker goroutines.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	ConnectionRejected()
	CommandDone(name string, elapsed time.Duration, failed bool)
	FramingError()
}

type nopMetrics struct{}

func (nopMetrics) ConnectionOpened()                       {}
func (nopMetrics) ConnectionClosed()                       {}
func (nopMetrics) ConnectionRejected()                     {}
func (nopMetrics) CommandDone(string, time.Duration, bool) {}
func (nopMetrics) FramingError()                           {}
