package resp

import (
	"bytes"
	"errors"
	"fmt"
)

// Protocol limits. Anything beyond them is treated as malformed framing.
const (
	// MaxArrayLen limits the number of elements in a request array.
	MaxArrayLen = 1 << 16

	// MaxBulkLen limits the size of a single bulk string (64MB).
	MaxBulkLen = 64 << 20

	// maxHeaderLen bounds "*<n>\r\n" and "$<n>\r\n" header lines.
	maxHeaderLen = 32
)

var (
	// ErrIncomplete means the buffer does not yet hold a complete request.
	ErrIncomplete = errors.New("resp: incomplete request")

	// ErrProtocol means the buffer holds malformed framing.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded means a length field is syntactically valid but too large.
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

var crlf = []byte("\r\n")

// Decode parses the first complete request in buf.
//
// On success it returns the request arguments and the number of bytes
// consumed. The returned slices alias buf. An empty or null array ("*0\r\n",
// "*-1\r\n") yields a nil args slice with n > 0.
//
// If buf holds only a prefix of a request, Decode returns ErrIncomplete and
// n == 0. Malformed framing yields an error wrapping ErrProtocol or
// ErrLimitExceeded, also with n == 0; see Parser for recovery.
func Decode(buf []byte) (args [][]byte, n int, err error) {
	if len(buf) == 0 {
		return nil, 0, ErrIncomplete
	}
	if buf[0] != '*' {
		return nil, 0, fmt.Errorf("%w: expected '*', got %q", ErrProtocol, buf[0])
	}

	count, pos, err := readHeader(buf, 0)
	if err != nil {
		return nil, 0, err
	}
	if count <= 0 {
		return nil, pos, nil
	}
	if count > MaxArrayLen {
		return nil, 0, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, count, MaxArrayLen)
	}

	args = make([][]byte, 0, count)
	for i := int64(0); i < count; i++ {
		if pos >= len(buf) {
			return nil, 0, ErrIncomplete
		}
		if buf[pos] != '$' {
			return nil, 0, fmt.Errorf("%w: expected '$', got %q", ErrProtocol, buf[pos])
		}

		size, next, err := readHeader(buf, pos)
		if err != nil {
			return nil, 0, err
		}
		if size == -1 {
			args = append(args, nil)
			pos = next
			continue
		}
		if size < 0 {
			return nil, 0, fmt.Errorf("%w: invalid bulk length %d", ErrProtocol, size)
		}
		if size > MaxBulkLen {
			return nil, 0, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, size, MaxBulkLen)
		}

		end := next + int(size)
		if end+2 > len(buf) {
			return nil, 0, ErrIncomplete
		}
		if buf[end] != '\r' || buf[end+1] != '\n' {
			return nil, 0, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
		}
		args = append(args, buf[next:end:end])
		pos = end + 2
	}

	return args, pos, nil
}

// readHeader parses a "<type><int>\r\n" line starting at buf[at] and returns
// the integer and the offset just past the CRLF.
func readHeader(buf []byte, at int) (int64, int, error) {
	rest := buf[at+1:]
	limit := len(rest)
	if limit > maxHeaderLen {
		limit = maxHeaderLen
	}

	idx := bytes.Index(rest[:limit], crlf)
	if idx < 0 {
		if len(rest) >= maxHeaderLen {
			return 0, 0, fmt.Errorf("%w: header line too long", ErrProtocol)
		}
		return 0, 0, ErrIncomplete
	}

	v, ok := parseInt(rest[:idx])
	if !ok {
		return 0, 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, rest[:idx])
	}
	return v, at + 1 + idx + 2, nil
}

// parseInt parses an optionally negative base-10 integer with no sign on zero
// and no surrounding whitespace.
func parseInt(b []byte) (int64, bool) {
	neg := false
	if len(b) > 0 && b[0] == '-' {
		neg = true
		b = b[1:]
	}
	// 18 digits always fit in an int64.
	if len(b) == 0 || len(b) > 18 {
		return 0, false
	}

	var v int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int64(c-'0')
	}
	if neg {
		v = -v
	}
	return v, true
}
