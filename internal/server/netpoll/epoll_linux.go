//go:build linux

package netpoll

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

const readEvents = unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLHUP | unix.EPOLLERR

// Poller is an epoll instance with an eventfd for cross-goroutine wakeups.
type Poller struct {
	fd     int
	wakeFd int
	raw    []unix.EpollEvent
	closed atomic.Bool

	// wakeMu keeps Close from releasing the wakeup fd under a concurrent Wake.
	wakeMu sync.RWMutex
}

// New creates a poller.
func New() (*Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("netpoll: epoll_create1: %w", err)
	}

	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netpoll: eventfd: %w", err)
	}

	p := &Poller{fd: fd, wakeFd: wakeFd}
	if err := p.ctl(unix.EPOLL_CTL_ADD, wakeFd, unix.EPOLLIN); err != nil {
		unix.Close(wakeFd)
		unix.Close(fd)
		return nil, err
	}
	return p, nil
}

func (p *Poller) ctl(op, fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	if err := unix.EpollCtl(p.fd, op, fd, &ev); err != nil {
		return fmt.Errorf("netpoll: epoll_ctl fd %d: %w", fd, err)
	}
	return nil
}

// AddRead registers fd for read readiness.
func (p *Poller) AddRead(fd int) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, readEvents)
}

// EnableWrite adds write interest for a registered fd.
func (p *Poller) EnableWrite(fd int) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, readEvents|unix.EPOLLOUT)
}

// DisableWrite drops write interest for a registered fd.
func (p *Poller) DisableWrite(fd int) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, readEvents)
}

// Remove unregisters fd.
func (p *Poller) Remove(fd int) error {
	return p.ctl(unix.EPOLL_CTL_DEL, fd, 0)
}

// Wait blocks until at least one fd is ready, the poller is woken, or
// timeoutMs elapses (negative means forever). It fills events and returns
// how many were written. Wakeups are consumed and not reported.
func (p *Poller) Wait(events []Event, timeoutMs int) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	if cap(p.raw) < len(events) {
		p.raw = make([]unix.EpollEvent, len(events))
	}
	raw := p.raw[:len(events)]

	n, err := unix.EpollWait(p.fd, raw, timeoutMs)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, fmt.Errorf("netpoll: epoll_wait: %w", err)
	}

	out := 0
	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		if fd == p.wakeFd {
			p.drainWake()
			continue
		}
		ev := raw[i].Events
		events[out] = Event{
			Fd:       fd,
			Readable: ev&readEvents != 0,
			Writable: ev&(unix.EPOLLOUT|unix.EPOLLERR) != 0,
		}
		out++
	}
	return out, nil
}

func (p *Poller) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wakeFd, buf[:]); err != nil {
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
	one := [8]byte{1}
	if _, err := unix.Write(p.wakeFd, one[:]); err != nil && !errors.Is(err, unix.EAGAIN) {
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
	err1 := unix.Close(p.wakeFd)
	err2 := unix.Close(p.fd)
	return errors.Join(err1, err2)
}
