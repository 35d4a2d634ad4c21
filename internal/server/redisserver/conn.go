package redisserver

import (
	"errors"
	"sync"

	"github.com/yndnr/shardkv/internal/protocol/resp"
	"github.com/yndnr/shardkv/internal/server/netpoll"
)

// connState is the lifecycle state of a connection.
type connState uint8

const (
	connOpen connState = iota
	connDraining
)

func (s connState) String() string {
	if s == connOpen {
		return "open"
	}
	return "draining"
}

// Submitter accepts decoded commands for execution. seq numbers the
// connection's commands from zero in arrival order.
type Submitter interface {
	Submit(connID, seq uint64, args [][]byte)
}

// maxRetainedOutbound bounds the outbound buffer capacity kept after a
// full drain.
const maxRetainedOutbound = 1 << 20

// Conn is one client connection. All fields except the outbound buffer
// are owned by the event loop goroutine.
type Conn struct {
	fd     int
	id     uint64
	remote string
	state  connState

	parser resp.Parser

	nextSeq     uint64
	nextRelease uint64
	held        map[uint64][]byte

	outMu      sync.Mutex
	out        []byte
	outOff     int
	writeArmed bool
	released   bool
}

func newConn(fd int, id uint64, remote string) *Conn {
	return &Conn{
		fd:     fd,
		id:     id,
		remote: remote,
		held:   make(map[uint64][]byte),
	}
}

// ID returns the connection's unique id.
func (c *Conn) ID() uint64 { return c.id }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string { return c.remote }

// Open reports whether the connection still accepts traffic.
func (c *Conn) Open() bool { return c.state == connOpen }

// Pending returns the number of submitted commands whose replies have not
// been released yet.
func (c *Conn) Pending() int { return int(c.nextSeq - c.nextRelease) }

// readFrom performs one read into buf and feeds the bytes to the parser.
// It returns the number of bytes read. Peer close and hard errors move the
// connection to draining.
func (c *Conn) readFrom(buf []byte) (int, error) {
	n, err := netpoll.Read(c.fd, buf)
	if n > 0 {
		c.parser.Feed(buf[:n])
	}
	switch {
	case err != nil && netpoll.IsWouldBlock(err):
		return n, nil
	case err != nil:
		c.state = connDraining
		return n, err
	case n == 0:
		c.state = connDraining
	}
	return n, nil
}

// process decodes every complete buffered command and submits it. It
// returns the number of framing errors skipped.
func (c *Conn) process(sub Submitter) int {
	framingErrs := 0
	for {
		args, err := c.parser.Next()
		if err != nil {
			if errors.Is(err, resp.ErrIncomplete) {
				return framingErrs
			}
			framingErrs++
			continue
		}
		if len(args) == 0 {
			continue
		}

		seq := c.nextSeq
		c.nextSeq++
		sub.Submit(c.id, seq, args)
	}
}

// complete records the reply for seq and moves every reply that is now in
// order to the outbound buffer. It reports whether anything was released.
func (c *Conn) complete(seq uint64, reply []byte) bool {
	if seq != c.nextRelease {
		c.held[seq] = reply
		return false
	}

	c.outMu.Lock()
	defer c.outMu.Unlock()

	c.out = append(c.out, reply...)
	c.nextRelease++
	for {
		next, ok := c.held[c.nextRelease]
		if !ok {
			break
		}
		delete(c.held, c.nextRelease)
		c.out = append(c.out, next...)
		c.nextRelease++
	}
	return true
}

// flush writes as much of the outbound buffer as the socket accepts. It
// returns true when the buffer is empty afterwards. A hard write error
// moves the connection to draining.
//
// outMu is held only to slice and advance the buffer, never across the
// write. Bytes appended during a write land past the sliced region and are
// picked up by the next pass.
func (c *Conn) flush() (bool, error) {
	for {
		c.outMu.Lock()
		pending := c.out[c.outOff:]
		c.outMu.Unlock()
		if len(pending) == 0 {
			break
		}

		n, err := netpoll.Write(c.fd, pending)

		c.outMu.Lock()
		c.outOff += n
		c.outMu.Unlock()

		if err != nil {
			if netpoll.IsWouldBlock(err) {
				return false, nil
			}
			c.state = connDraining
			return false, err
		}
		if n == 0 {
			return false, nil
		}
	}

	c.outMu.Lock()
	defer c.outMu.Unlock()
	if c.outOff < len(c.out) {
		return false, nil
	}
	if cap(c.out) > maxRetainedOutbound {
		c.out = nil
	} else {
		c.out = c.out[:0]
	}
	c.outOff = 0
	return true, nil
}

// outboundLen returns the number of bytes waiting to be written.
func (c *Conn) outboundLen() int {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	return len(c.out) - c.outOff
}
