package output

import (
	"encoding/json"
	"io"

	"github.com/yndnr/shardkv/internal/protocol/resp"
)

// JSONFormatter renders replies as JSON values: strings for simple and
// bulk replies, numbers for integers, null, arrays, and {"error": msg}
// for error replies.
type JSONFormatter struct{}

// Format writes the reply as one JSON line.
func (f *JSONFormatter) Format(w io.Writer, reply resp.Reply) error {
	return json.NewEncoder(w).Encode(toJSON(reply))
}

func toJSON(r resp.Reply) any {
	switch r.Kind {
	case resp.KindSimple, resp.KindBulk:
		return string(r.Str)
	case resp.KindError:
		return map[string]string{"error": string(r.Str)}
	case resp.KindInteger:
		return r.Int
	case resp.KindArray:
		out := make([]any, len(r.Elems))
		for i, e := range r.Elems {
			out[i] = toJSON(e)
		}
		return out
	default:
		return nil
	}
}
