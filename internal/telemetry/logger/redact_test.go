package logger

import (
	"log/slog"
	"strings"
	"testing"
)

func TestRedactSensitive(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"password key", slog.String("password", "p@ss"), redactedValue},
		{"secret suffix", slog.String("client_secret", "x"), redactedValue},
		{"empty secret", slog.String("secret", ""), ""},
		{"plain key", slog.String("key", "session:abc"), "session:abc"},
		{"short value", slog.String("value", "bar"), "bar"},
		{"long value", slog.String("value", strings.Repeat("v", 10)), "vvvv...(+6 bytes)"},
		{"byte value", slog.Any("value", []byte("hello world")), "hell...(+7 bytes)"},
		{"byte secret", slog.Any("token", []byte("abc")), redactedValue},
		{"args", slog.String("args", "SET k 123456"), "SET ...(+8 bytes)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactSensitive(tt.attr, 4)
			if got.Value.String() != tt.want {
				t.Errorf("redactSensitive() = %q, want %q", got.Value.String(), tt.want)
			}
		})
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	attr := slog.Group("conn", slog.String("remote", "127.0.0.1:5000"), slog.String("auth", "letmein"))
	got := redactSensitive(attr, 64)

	for _, a := range got.Value.Group() {
		switch a.Key {
		case "remote":
			if a.Value.String() != "127.0.0.1:5000" {
				t.Errorf("remote = %q", a.Value.String())
			}
		case "auth":
			if a.Value.String() != redactedValue {
				t.Errorf("auth = %q, want redacted", a.Value.String())
			}
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"abcdef", 3, "abc...(+3 bytes)"},
		{"héllo", 2, "h...(+5 bytes)"},
		{"anything", 0, "anything"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"password", true},
		{"PASSWORD", true},
		{"api_token", true},
		{"authorization", true},
		{"key", false},
		{"value", false},
		{"shard", false},
	}

	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
