//go:build !linux && !darwin && !freebsd

package netpoll

import "net"

// Poller is unavailable on this platform.
type Poller struct{}

// New always fails on this platform.
func New() (*Poller, error) { return nil, ErrUnsupported }

func (p *Poller) AddRead(fd int) error                     { return ErrUnsupported }
func (p *Poller) EnableWrite(fd int) error                 { return ErrUnsupported }
func (p *Poller) DisableWrite(fd int) error                { return ErrUnsupported }
func (p *Poller) Remove(fd int) error                      { return ErrUnsupported }
func (p *Poller) Wait(events []Event, ms int) (int, error) { return 0, ErrUnsupported }
func (p *Poller) Wake() error                              { return ErrUnsupported }
func (p *Poller) Close() error                             { return nil }

func Listen(host string, port, backlog int) (int, *net.TCPAddr, error) {
	return -1, nil, ErrUnsupported
}
func Accept(lfd int) (int, string, error)  { return -1, "", ErrUnsupported }
func Read(fd int, p []byte) (int, error)   { return 0, ErrUnsupported }
func Write(fd int, p []byte) (int, error)  { return 0, ErrUnsupported }
func Close(fd int) error                   { return ErrUnsupported }
func IsWouldBlock(err error) bool          { return false }
func IsTemporaryAccept(err error) bool     { return false }
func IsDescriptorExhausted(err error) bool { return false }
