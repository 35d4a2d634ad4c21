package resp

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReadReply(t *testing.T) {
	input := "+OK\r\n-unknown command\r\n:7\r\n$3\r\nbar\r\n$-1\r\n*2\r\n$1\r\na\r\n$1\r\nb\r\n*0\r\n"
	r := bufio.NewReader(strings.NewReader(input))

	want := []struct {
		kind Kind
		str  string
		n    int64
	}{
		{KindSimple, "OK", 0},
		{KindError, "unknown command", 0},
		{KindInteger, "", 7},
		{KindBulk, "bar", 0},
		{KindNull, "", 0},
		{KindArray, "", 0},
		{KindArray, "", 0},
	}

	for i, w := range want {
		got, err := ReadReply(r)
		if err != nil {
			t.Fatalf("reply %d: error = %v", i, err)
		}
		if got.Kind != w.kind {
			t.Fatalf("reply %d: kind = %v, want %v", i, got.Kind, w.kind)
		}
		if w.str != "" && string(got.Str) != w.str {
			t.Errorf("reply %d: str = %q, want %q", i, got.Str, w.str)
		}
		if got.Int != w.n {
			t.Errorf("reply %d: int = %d, want %d", i, got.Int, w.n)
		}
	}

	if _, err := ReadReply(r); !errors.Is(err, io.EOF) {
		t.Errorf("trailing err = %v, want io.EOF", err)
	}
}

func TestReadReply_ArrayElements(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("*2\r\n$1\r\na\r\n$2\r\nbc\r\n"))
	got, err := ReadReply(r)
	if err != nil {
		t.Fatalf("ReadReply() error = %v", err)
	}
	if len(got.Elems) != 2 || string(got.Elems[0].Str) != "a" || string(got.Elems[1].Str) != "bc" {
		t.Errorf("elems = %+v", got.Elems)
	}
}

func TestReply_Err(t *testing.T) {
	if (Reply{Kind: KindSimple}).Err() != nil {
		t.Error("simple reply should not be an error")
	}
	err := (Reply{Kind: KindError, Str: []byte("boom")}).Err()
	if !errors.Is(err, ErrReplyError) {
		t.Errorf("Err() = %v, want ErrReplyError", err)
	}
}

func TestReadReply_Malformed(t *testing.T) {
	for _, input := range []string{"?x\r\n", ":abc\r\n", "$x\r\n", "+OK\n"} {
		r := bufio.NewReader(strings.NewReader(input))
		if _, err := ReadReply(r); !errors.Is(err, ErrProtocol) {
			t.Errorf("ReadReply(%q) err = %v, want ErrProtocol", input, err)
		}
	}
}
