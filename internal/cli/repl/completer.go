package repl

import (
	"sort"
	"strings"
)

// Completer matches command names by prefix.
type Completer struct {
	commands []string
	usage    map[string]string
}

// NewCompleter creates a Completer for the server commands and the
// local REPL commands.
func NewCompleter() *Completer {
	usage := map[string]string{
		"PING":   "PING",
		"SET":    "SET key value",
		"SETEX":  "SETEX key seconds value",
		"GET":    "GET key",
		"DEL":    "DEL key [key ...]",
		"EXISTS": "EXISTS key [key ...]",
		"EXPIRE": "EXPIRE key seconds",
		"TTL":    "TTL key",
		"KEYS":   "KEYS pattern",
		"help":   "help [prefix]",
		"quit":   "quit",
		"exit":   "exit",
	}
	cmds := make([]string, 0, len(usage))
	for name := range usage {
		cmds = append(cmds, name)
	}
	sort.Strings(cmds)
	return &Completer{commands: cmds, usage: usage}
}

// Complete returns command names starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToUpper(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(strings.ToUpper(cmd), prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Usage returns the usage line for a command name.
func (c *Completer) Usage(cmd string) string {
	return c.usage[cmd]
}
