package redisserver

import (
	"strconv"

	"github.com/yndnr/shardkv/internal/protocol/resp"
)

// Error replies.
const (
	errUnknownCommand = "unknown command"
	errEmptyCommand   = "empty command"
	errInvalidExpire  = "invalid expire time"
)

// Store is the key-value surface the executor needs.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	SetWithTTL(key string, value []byte, ttlSeconds int64)
	Delete(key string) bool
	Exists(key string) bool
	Expire(key string, ttlSeconds int64) bool
	TTL(key string) int64
	Keys(pattern string) []string
}

type handlerFunc func(store Store, dst []byte, args [][]byte) []byte

type command struct {
	minArgs int
	handle  handlerFunc
}

// commands maps the case-sensitive command name to its handler. minArgs
// counts the command name itself; extra arguments are ignored.
var commands = map[string]command{
	"PING":   {1, handlePing},
	"SET":    {3, handleSet},
	"SETEX":  {4, handleSetEx},
	"GET":    {2, handleGet},
	"DEL":    {2, handleDel},
	"EXISTS": {2, handleExists},
	"EXPIRE": {3, handleExpire},
	"TTL":    {2, handleTTL},
	"KEYS":   {2, handleKeys},
}

// Executor runs commands against a store and renders their replies.
// It is safe for concurrent use.
type Executor struct {
	store Store
}

// NewExecutor creates an executor bound to store.
func NewExecutor(store Store) *Executor {
	return &Executor{store: store}
}

// Execute runs one command and appends its reply to dst. Connections drop
// empty arrays before submitting, so the empty command reply is only seen
// by direct callers.
func (e *Executor) Execute(dst []byte, args [][]byte) []byte {
	if len(args) == 0 {
		return resp.AppendError(dst, errEmptyCommand)
	}

	cmd, ok := commands[string(args[0])]
	if !ok || len(args) < cmd.minArgs {
		return resp.AppendError(dst, errUnknownCommand)
	}
	return cmd.handle(e.store, dst, args)
}

// CommandName returns a bounded label for args: the command name when it
// is known, otherwise "unknown" (or "empty" for an empty command).
func CommandName(args [][]byte) string {
	if len(args) == 0 {
		return "empty"
	}
	if _, ok := commands[string(args[0])]; ok {
		return string(args[0])
	}
	return "unknown"
}

// parseTTL parses a non-negative decimal TTL in seconds.
func parseTTL(b []byte) (int64, bool) {
	ttl, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || ttl < 0 {
		return 0, false
	}
	return ttl, true
}

func handlePing(_ Store, dst []byte, _ [][]byte) []byte {
	return resp.AppendBulkString(dst, "PONG")
}

func handleSet(store Store, dst []byte, args [][]byte) []byte {
	store.Set(string(args[1]), args[2])
	return resp.AppendOK(dst)
}

func handleSetEx(store Store, dst []byte, args [][]byte) []byte {
	ttl, ok := parseTTL(args[2])
	if !ok {
		return resp.AppendError(dst, errInvalidExpire)
	}
	store.SetWithTTL(string(args[1]), args[3], ttl)
	return resp.AppendOK(dst)
}

func handleGet(store Store, dst []byte, args [][]byte) []byte {
	value, ok := store.Get(string(args[1]))
	if !ok {
		return resp.AppendNullBulk(dst)
	}
	return resp.AppendBulk(dst, value)
}

func handleDel(store Store, dst []byte, args [][]byte) []byte {
	var removed int64
	for _, key := range args[1:] {
		if store.Delete(string(key)) {
			removed++
		}
	}
	return resp.AppendInteger(dst, removed)
}

func handleExists(store Store, dst []byte, args [][]byte) []byte {
	var count int64
	for _, key := range args[1:] {
		if store.Exists(string(key)) {
			count++
		}
	}
	return resp.AppendInteger(dst, count)
}

func handleExpire(store Store, dst []byte, args [][]byte) []byte {
	ttl, ok := parseTTL(args[2])
	if !ok {
		return resp.AppendError(dst, errInvalidExpire)
	}
	if store.Expire(string(args[1]), ttl) {
		return resp.AppendInteger(dst, 1)
	}
	return resp.AppendInteger(dst, 0)
}

func handleTTL(store Store, dst []byte, args [][]byte) []byte {
	return resp.AppendInteger(dst, store.TTL(string(args[1])))
}

func handleKeys(store Store, dst []byte, args [][]byte) []byte {
	return resp.AppendBulkArray(dst, store.Keys(string(args[1])))
}
