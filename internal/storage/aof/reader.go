package aof

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Target receives replayed mutations. The memory store satisfies it.
type Target interface {
	Set(key string, value []byte)
	SetWithTTL(key string, value []byte, ttlSeconds int64)
	Delete(key string) bool
	Expire(key string, ttlSeconds int64) bool
}

// ReplayResult summarises a replay.
type ReplayResult struct {
	// Applied is the number of records applied to the target.
	Applied int
	// ValidBytes is the length of the longest prefix made of complete,
	// well-formed records.
	ValidBytes int64
	// Truncated is set when bytes follow the valid prefix.
	Truncated bool
	// TornTail is set when the bytes after the valid prefix are a single
	// final line, the shape an interrupted append leaves behind. When
	// Truncated is set without TornTail, well-formed records may follow the
	// bad line.
	TornTail bool
	// Err describes why replay stopped early, if it did.
	Err error
}

// maxLineLen bounds a single record line.
const maxLineLen = 256 << 20

// Reader replays a log file.
type Reader struct {
	path string
}

// NewReader creates a reader for the log at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Replay applies every complete record in file order to target. It stops
// at the first line that is unterminated or does not parse and never
// modifies the file. A missing file is an empty log.
func (r *Reader) Replay(ctx context.Context, target Target) (ReplayResult, error) {
	var res ReplayResult

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, nil
		}
		return res, fmt.Errorf("aof: open for replay: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64<<10)
	var line []byte

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		line, err = readLine(br, line[:0])
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(line) > 0 {
					res.Truncated = true
					res.TornTail = true
					res.Err = fmt.Errorf("%w: unterminated final line", ErrCorruptRecord)
				}
				return res, nil
			}
			if errors.Is(err, ErrCorruptRecord) {
				res.Truncated = true
				res.Err = err
				return res, nil
			}
			return res, fmt.Errorf("aof: read: %w", err)
		}

		rec, perr := parseRecord(line[:len(line)-1])
		if perr != nil {
			res.Truncated = true
			_, peekErr := br.Peek(1)
			res.TornTail = errors.Is(peekErr, io.EOF)
			res.Err = fmt.Errorf("record at offset %d: %w", res.ValidBytes, perr)
			return res, nil
		}

		apply(target, rec)
		res.Applied++
		res.ValidBytes += int64(len(line))
	}
}

// readLine reads through the next newline, keeping it in the result.
func readLine(br *bufio.Reader, buf []byte) ([]byte, error) {
	for {
		frag, err := br.ReadSlice('\n')
		buf = append(buf, frag...)
		if err == nil {
			return buf, nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return buf, err
		}
		if len(buf) > maxLineLen {
			return buf, fmt.Errorf("%w: line exceeds %d bytes", ErrCorruptRecord, maxLineLen)
		}
	}
}

func apply(target Target, rec Record) {
	switch rec.Op {
	case OpSet:
		target.Set(rec.Key, rec.Value)
	case OpSetEx:
		target.SetWithTTL(rec.Key, rec.Value, rec.TTL)
	case OpDel:
		target.Delete(rec.Key)
	case OpExpire:
		target.Expire(rec.Key, rec.TTL)
	}
}
