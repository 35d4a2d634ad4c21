package aof

import (
	"errors"
	"fmt"
)

// Errors for AOF operations.
var (
	ErrCorruptRecord = errors.New("aof: corrupt record")
	ErrClosed        = errors.New("aof: writer is closed")
	ErrFailed        = errors.New("aof: writer failed, log left a partial record")
)

// Op is the kind of mutation a record describes.
type Op uint8

const (
	OpUnspecified Op = iota
	OpSet
	OpSetEx
	OpDel
	OpExpire
)

var opNames = [...]string{
	OpUnspecified: "UNSPECIFIED",
	OpSet:         "SET",
	OpSetEx:       "SETEX",
	OpDel:         "DEL",
	OpExpire:      "EXPIRE",
}

// String returns the record keyword for op.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", op)
}

func parseOp(s []byte) Op {
	switch string(s) {
	case "SET":
		return OpSet
	case "SETEX":
		return OpSetEx
	case "DEL":
		return OpDel
	case "EXPIRE":
		return OpExpire
	default:
		return OpUnspecified
	}
}

// Record is one journaled mutation.
type Record struct {
	Op    Op
	Key   string
	Value []byte
	TTL   int64
}
