//go:build darwin || freebsd

package netpoll

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Poller is a kqueue instance with a self-pipe for cross-goroutine wakeups.
type Poller struct {
	fd     int
	wakeR  int
	wakeW  int
	raw    []unix.Kevent_t
	closed atomic.Bool

	// wakeMu keeps Close from releasing the wakeup fd under a concurrent Wake.
	wakeMu sync.RWMutex
}

// New creates a poller.
func New() (*Poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("netpoll: kqueue: %w", err)
	}
	unix.CloseOnExec(fd)

	var pipe [2]int
	if err := unix.Pipe(pipe[:]); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netpoll: pipe: %w", err)
	}
	for _, pfd := range pipe {
		unix.CloseOnExec(pfd)
		if err := unix.SetNonblock(pfd, true); err != nil {
			unix.Close(pipe[0])
			unix.Close(pipe[1])
			unix.Close(fd)
			return nil, fmt.Errorf("netpoll: pipe nonblock: %w", err)
		}
	}

	p := &Poller{fd: fd, wakeR: pipe[0], wakeW: pipe[1]}
	if err := p.AddRead(p.wakeR); err != nil {
		unix.Close(pipe[0])
		unix.Close(pipe[1])
		unix.Close(fd)
		return nil, err
	}
	return p, nil
}

func (p *Poller) change(fd, filter, flags int) error {
	var ev [1]unix.Kevent_t
	unix.SetKevent(&ev[0], fd, filter, flags)
	if _, err := unix.Kevent(p.fd, ev[:], nil, nil); err != nil {
		return fmt.Errorf("netpoll: kevent fd %d: %w", fd, err)
	}
	return nil
}

// AddRead registers fd for read readiness.
func (p *Poller) AddRead(fd int) error {
	return p.change(fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE)
}

// EnableWrite adds write interest for a registered fd.
func (p *Poller) EnableWrite(fd int) error {
	return p.change(fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE)
}

// DisableWrite drops write interest for a registered fd.
func (p *Poller) DisableWrite(fd int) error {
	err := p.change(fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	if errors.Is(err, unix.ENOENT) {
		return nil
	}
	return err
}

// Remove unregisters fd.
func (p *Poller) Remove(fd int) error {
	err := p.change(fd, unix.EVFILT_READ, unix.EV_DELETE)
	if errors.Is(err, unix.ENOENT) {
		err = nil
	}
	if werr := p.DisableWrite(fd); werr != nil && err == nil {
		err = werr
	}
	return err
}

// Wait blocks until at least one fd is ready, the poller is woken, or
// timeoutMs elapses (negative means forever). It fills events and returns
// how many were written. Wakeups are consumed and not reported.
func (p *Poller) Wait(events []Event, timeoutMs int) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	if cap(p.raw) < len(events) {
		p.raw = make([]unix.Kevent_t, len(events))
	}
	raw := p.raw[:len(events)]

	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * 1e6)
		ts = &t
	}

	n, err := unix.Kevent(p.fd, nil, raw, ts)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, fmt.Errorf("netpoll: kevent wait: %w", err)
	}

	out := 0
	for i := 0; i < n; i++ {
		fd := int(raw[i].Ident)
		if fd == p.wakeR {
			p.drainWake()
			continue
		}
		hup := raw[i].Flags&(unix.EV_EOF|unix.EV_ERROR) != 0
		events[out] = Event{
			Fd:       fd,
			Readable: raw[i].Filter == unix.EVFILT_READ || hup,
			Writable: raw[i].Filter == unix.EVFILT_WRITE,
		}
		out++
	}
	return out, nil
}

func (p *Poller) drainWake() {
	var buf [64]byte
	for {
		if _, err := unix.Read(p.wakeR, buf[:]); err != nil {
			return
		}
	}
}

// Wake interrupts a blocked Wait. Multiple wakes may be coalesced.
func (p *Poller) Wake() error {
	p.wakeMu.RLock()
	defer p.wakeMu.RUnlock()
	if p.closed.Load() {
		return ErrClosed
	}
	if _, err := unix.Write(p.wakeW, []byte{0}); err != nil && !errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("netpoll: wake: %w", err)
	}
	return nil
}

// Close releases the poller.
func (p *Poller) Close() error {
	p.wakeMu.Lock()
	defer p.wakeMu.Unlock()
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return errors.Join(unix.Close(p.wakeR), unix.Close(p.wakeW), unix.Close(p.fd))
}
