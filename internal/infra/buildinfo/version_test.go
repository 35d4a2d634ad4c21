package buildinfo

import (
	"runtime"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestGet(t *testing.T) {
	info := Get()

	tests := []struct {
		name  string
		value string
	}{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"BuildTime", info.BuildTime},
		{"GoVersion", info.GoVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Errorf("%s should not be empty", tt.name)
			}
		})
	}

	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestString(t *testing.T) {
	info := Get()
	want := info.Version + " (" + info.Commit + ") built at " + info.BuildTime + " with " + info.GoVersion
	if s := String(); s != want {
		t.Errorf("String() = %q, want %q", s, want)
	}
}

func TestNewRunID(t *testing.T) {
	a := NewRunID()
	b := NewRunID()

	if a == b {
		t.Error("NewRunID() returned the same id twice")
	}
	if len(a) != 26 {
		t.Errorf("len(NewRunID()) = %d, want 26", len(a))
	}
	if _, err := ulid.ParseStrict(a); err != nil {
		t.Errorf("NewRunID() = %q is not a ULID: %v", a, err)
	}
	if strings.ToUpper(a) != a {
		t.Errorf("NewRunID() = %q, want upper-case Crockford base32", a)
	}
}
