package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/shardkv/internal/cli/output"
	"github.com/yndnr/shardkv/internal/protocol/resp"
)

// Executor sends one command to the server.
type Executor interface {
	Do(args ...string) (resp.Reply, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	exec      Executor
	formatter output.Formatter
	completer *Completer
	history   *History
	prompt    string
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// WithFormatter sets the reply formatter.
func WithFormatter(f output.Formatter) Option {
	return func(r *REPL) {
		r.formatter = f
	}
}

// New creates a REPL that sends commands through exec. prompt is usually
// the server address.
func New(exec Executor, prompt string, opts ...Option) *REPL {
	r := &REPL{
		exec:      exec,
		formatter: &output.TextFormatter{},
		completer: NewCompleter(),
		history:   NewHistory(""),
		prompt:    prompt + "> ",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the REPL loop. It returns nil on exit, quit or end of input,
// and an error when the connection to the server fails.
func (r *REPL) Run() error {
	reader := bufio.NewReader(r.input)

	for {
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}

		if err := r.execute(line); err != nil {
			return err
		}
	}
}

func (r *REPL) execute(line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		fmt.Fprintln(r.output, "Invalid argument(s)")
		return nil
	}
	if len(args) == 0 {
		return nil
	}

	if args[0] == "help" {
		r.help(args[1:])
		return nil
	}

	reply, err := r.exec.Do(args...)
	if err != nil {
		return err
	}
	return r.formatter.Format(r.output, reply)
}

func (r *REPL) help(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "no commands match %q\n", prefix)
		return
	}
	for _, cmd := range matches {
		fmt.Fprintln(r.output, r.completer.Usage(cmd))
	}
}
