package confloader

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Flat parses the line-oriented configuration format:
//
//	# comment
//	port = 6380
//	aof_file data/aof.log
//
// Each line holds a key and a value separated by the first '=' or, when
// there is none, the first space. Blank lines, comments and lines without
// a separator are skipped. Values are kept as strings.
type Flat struct{}

// FlatParser returns a koanf parser for the flat format.
func FlatParser() *Flat {
	return &Flat{}
}

// Unmarshal parses flat configuration bytes into a map.
func (p *Flat) Unmarshal(b []byte) (map[string]any, error) {
	out := make(map[string]any)

	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		sep := strings.IndexByte(line, '=')
		if sep < 0 {
			sep = strings.IndexAny(line, " \t")
		}
		if sep < 0 {
			continue
		}

		key := strings.TrimSpace(line[:sep])
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(line[sep+1:])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("flat: %w", err)
	}

	return out, nil
}

// Marshal renders a map as key = value lines sorted by key.
func (p *Flat) Marshal(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s = %v\n", k, m[k])
	}
	return buf.Bytes(), nil
}
