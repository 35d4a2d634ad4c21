package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind identifies the type of a reply.
type Kind uint8

const (
	KindSimple Kind = iota + 1
	KindError
	KindInteger
	KindBulk
	KindNull
	KindArray
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulk:
		return "bulk"
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Reply is a decoded server reply.
type Reply struct {
	Kind  Kind
	Str   []byte  // simple, error and bulk payloads
	Int   int64   // integer payload
	Elems []Reply // array elements
}

// ErrReplyError is wrapped by Reply.Err for error replies.
var ErrReplyError = errors.New("resp: error reply")

// Err returns a non-nil error for error replies.
func (r Reply) Err() error {
	if r.Kind != KindError {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrReplyError, r.Str)
}

// ReadReply reads one reply from r.
func ReadReply(r *bufio.Reader) (Reply, error) {
	line, err := readLine(r)
	if err != nil {
		return Reply{}, err
	}
	if len(line) == 0 {
		return Reply{}, fmt.Errorf("%w: empty reply line", ErrProtocol)
	}

	payload := line[1:]
	switch line[0] {
	case '+':
		return Reply{Kind: KindSimple, Str: payload}, nil
	case '-':
		return Reply{Kind: KindError, Str: payload}, nil
	case ':':
		n, err := strconv.ParseInt(string(payload), 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: invalid integer %q", ErrProtocol, payload)
		}
		return Reply{Kind: KindInteger, Int: n}, nil
	case '$':
		n, ok := parseInt(payload)
		if !ok || n < -1 {
			return Reply{}, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, payload)
		}
		if n == -1 {
			return Reply{Kind: KindNull}, nil
		}
		if n > MaxBulkLen {
			return Reply{}, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Reply{}, err
		}
		if !bytes.HasSuffix(buf, crlf) {
			return Reply{}, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
		}
		return Reply{Kind: KindBulk, Str: buf[:n]}, nil
	case '*':
		n, ok := parseInt(payload)
		if !ok || n < -1 {
			return Reply{}, fmt.Errorf("%w: invalid array length %q", ErrProtocol, payload)
		}
		if n == -1 {
			return Reply{Kind: KindNull}, nil
		}
		if n > MaxArrayLen {
			return Reply{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
		}
		elems := make([]Reply, 0, n)
		for i := int64(0); i < n; i++ {
			e, err := ReadReply(r)
			if err != nil {
				return Reply{}, err
			}
			elems = append(elems, e)
		}
		return Reply{Kind: KindArray, Elems: elems}, nil
	default:
		return Reply{}, fmt.Errorf("%w: unknown reply type %q", ErrProtocol, line[0])
	}
}

// readLine reads a CRLF terminated line and returns it without the CRLF.
func readLine(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			continue
		}
		return nil, err
	}

	if len(buf) < 2 || buf[len(buf)-2] != '\r' {
		return nil, fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return buf[:len(buf)-2], nil
}
