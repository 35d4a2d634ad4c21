package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/shardkv/internal/protocol/resp"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
)

// Formatter renders one reply.
type Formatter interface {
	Format(w io.Writer, reply resp.Reply) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatRaw:
		return &RawFormatter{}
	default:
		return &TextFormatter{}
	}
}

// TextFormatter renders replies for a human at a terminal:
//
//	(integer) 1
//	"bar"
//	1) "a"
//	2) "b"
type TextFormatter struct{}

// Format writes the reply followed by a newline.
func (f *TextFormatter) Format(w io.Writer, reply resp.Reply) error {
	var sb strings.Builder
	writeText(&sb, reply, "")
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeText(sb *strings.Builder, r resp.Reply, indent string) {
	switch r.Kind {
	case resp.KindSimple:
		sb.Write(r.Str)
	case resp.KindError:
		sb.WriteString("(error) ")
		sb.Write(r.Str)
	case resp.KindInteger:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatInt(r.Int, 10))
	case resp.KindBulk:
		sb.WriteString(strconv.Quote(string(r.Str)))
	case resp.KindNull:
		sb.WriteString("(nil)")
	case resp.KindArray:
		if len(r.Elems) == 0 {
			sb.WriteString("(empty array)")
			break
		}
		width := len(strconv.Itoa(len(r.Elems)))
		for i, e := range r.Elems {
			prefix := fmt.Sprintf("%*d) ", width, i+1)
			if i > 0 {
				sb.WriteString(indent)
			}
			sb.WriteString(prefix)
			writeText(sb, e, indent+strings.Repeat(" ", len(prefix)))
			if i < len(r.Elems)-1 {
				sb.WriteByte('\n')
			}
		}
		if indent != "" {
			return
		}
	}
	if indent == "" {
		sb.WriteByte('\n')
	}
}

// RawFormatter renders payloads without decoration, one per line, for
// use in scripts.
type RawFormatter struct{}

// Format writes the reply payload.
func (f *RawFormatter) Format(w io.Writer, reply resp.Reply) error {
	var sb strings.Builder
	writeRaw(&sb, reply)
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeRaw(sb *strings.Builder, r resp.Reply) {
	switch r.Kind {
	case resp.KindSimple, resp.KindBulk:
		sb.Write(r.Str)
		sb.WriteByte('\n')
	case resp.KindError:
		sb.WriteString("(error) ")
		sb.Write(r.Str)
		sb.WriteByte('\n')
	case resp.KindInteger:
		sb.WriteString(strconv.FormatInt(r.Int, 10))
		sb.WriteByte('\n')
	case resp.KindNull:
		sb.WriteByte('\n')
	case resp.KindArray:
		for _, e := range r.Elems {
			writeRaw(sb, e)
		}
	}
}
