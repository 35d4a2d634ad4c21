package resp

import (
	"bytes"
	"errors"
)

// compactThreshold is the consumed prefix size above which Feed moves the
// unconsumed remainder to the front of the buffer.
const compactThreshold = 4096

// Parser accumulates raw bytes and yields complete requests.
//
// A Parser is not safe for concurrent use; each connection owns one.
type Parser struct {
	buf []byte
	off int
}

// Feed appends newly read bytes to the accumulator.
func (p *Parser) Feed(b []byte) {
	if p.off > 0 && (p.off >= compactThreshold || p.off == len(p.buf)) {
		n := copy(p.buf, p.buf[p.off:])
		p.buf = p.buf[:n]
		p.off = 0
	}
	p.buf = append(p.buf, b...)
}

// Next returns the next complete request.
//
// The returned arguments are copies and stay valid after further calls to
// Feed. It returns ErrIncomplete when no complete request is buffered; the
// partial request is left in place. When the buffered bytes are malformed,
// Next discards them up to and including the next CRLF (or everything
// buffered when there is none) and returns the framing error. The caller
// can keep calling Next after an error.
func (p *Parser) Next() ([][]byte, error) {
	args, n, err := Decode(p.buf[p.off:])
	if err != nil {
		if errors.Is(err, ErrIncomplete) {
			return nil, err
		}
		p.discardLine()
		return nil, err
	}

	p.off += n
	return clone(args), nil
}

// Buffered returns the number of unconsumed bytes.
func (p *Parser) Buffered() int {
	return len(p.buf) - p.off
}

// Reset drops all buffered bytes.
func (p *Parser) Reset() {
	p.buf = p.buf[:0]
	p.off = 0
}

func (p *Parser) discardLine() {
	rest := p.buf[p.off:]
	idx := bytes.Index(rest, crlf)
	if idx < 0 {
		p.off = len(p.buf)
		return
	}
	p.off += idx + 2
}

// clone copies args into a single backing allocation.
func clone(args [][]byte) [][]byte {
	if args == nil {
		return nil
	}

	total := 0
	for _, a := range args {
		total += len(a)
	}

	backing := make([]byte, 0, total)
	out := make([][]byte, len(args))
	for i, a := range args {
		if a == nil {
			continue
		}
		start := len(backing)
		backing = append(backing, a...)
		out[i] = backing[start:len(backing):len(backing)]
	}
	return out
}
