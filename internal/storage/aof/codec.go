package aof

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// appendRecord renders rec as a single newline-terminated line.
func appendRecord(dst []byte, rec Record) []byte {
	dst = append(dst, rec.Op.String()...)
	dst = append(dst, ' ')
	dst = appendField(dst, []byte(rec.Key))

	switch rec.Op {
	case OpSet:
		dst = append(dst, ' ')
		dst = appendField(dst, rec.Value)
	case OpSetEx:
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, rec.TTL, 10)
		dst = append(dst, ' ')
		dst = appendField(dst, rec.Value)
	case OpExpire:
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, rec.TTL, 10)
	}

	return append(dst, '\n')
}

func appendField(dst, field []byte) []byte {
	if needsQuote(field) {
		return strconv.AppendQuote(dst, string(field))
	}
	return append(dst, field...)
}

func needsQuote(field []byte) bool {
	if len(field) == 0 {
		return true
	}
	for _, c := range field {
		if c <= ' ' || c == '"' || c == 0x7f {
			return true
		}
	}
	return !utf8.Valid(field)
}

// parseRecord parses one line without its trailing newline.
func parseRecord(line []byte) (Record, error) {
	fields, err := splitFields(line)
	if err != nil {
		return Record{}, err
	}
	if len(fields) < 2 {
		return Record{}, fmt.Errorf("%w: too few fields", ErrCorruptRecord)
	}

	rec := Record{Op: parseOp(fields[0]), Key: string(fields[1])}

	want := 0
	switch rec.Op {
	case OpSet:
		want = 3
	case OpSetEx:
		want = 4
	case OpDel:
		want = 2
	case OpExpire:
		want = 3
	default:
		return Record{}, fmt.Errorf("%w: unknown op %q", ErrCorruptRecord, fields[0])
	}
	if len(fields) != want {
		return Record{}, fmt.Errorf("%w: %s expects %d fields, got %d", ErrCorruptRecord, rec.Op, want, len(fields))
	}

	switch rec.Op {
	case OpSet:
		rec.Value = fields[2]
	case OpSetEx:
		if rec.TTL, err = parseTTL(fields[2]); err != nil {
			return Record{}, err
		}
		rec.Value = fields[3]
	case OpExpire:
		if rec.TTL, err = parseTTL(fields[2]); err != nil {
			return Record{}, err
		}
	}

	return rec, nil
}

func parseTTL(b []byte) (int64, error) {
	ttl, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || ttl < 0 {
		return 0, fmt.Errorf("%w: bad ttl %q", ErrCorruptRecord, b)
	}
	return ttl, nil
}

// splitFields splits a line on single spaces, decoding quoted fields.
func splitFields(line []byte) ([][]byte, error) {
	var fields [][]byte

	for len(line) > 0 {
		var field []byte

		if line[0] == '"' {
			quoted, err := strconv.QuotedPrefix(string(line))
			if err != nil {
				return nil, fmt.Errorf("%w: bad quoted field", ErrCorruptRecord)
			}
			s, err := strconv.Unquote(quoted)
			if err != nil {
				return nil, fmt.Errorf("%w: bad quoted field", ErrCorruptRecord)
			}
			field = []byte(s)
			line = line[len(quoted):]
		} else {
			end := bytes.IndexByte(line, ' ')
			if end < 0 {
				end = len(line)
			}
			if end == 0 {
				return nil, fmt.Errorf("%w: empty field", ErrCorruptRecord)
			}
			field = line[:end]
			line = line[end:]
		}

		fields = append(fields, field)

		if len(line) == 0 {
			break
		}
		if line[0] != ' ' || len(line) == 1 {
			return nil, fmt.Errorf("%w: bad field separator", ErrCorruptRecord)
		}
		line = line[1:]
	}

	return fields, nil
}
