package bench

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// ============================================================================
// Configuration
// ============================================================================

func TestNewRunner_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero clients", func(c *Config) { c.Clients = 0 }, true},
		{"zero requests", func(c *Config) { c.Requests = 0 }, true},
		{"zero pipeline", func(c *Config) { c.Pipeline = 0 }, true},
		{"unknown test", func(c *Config) { c.Tests = []string{"set", "flushall"} }, true},
		{"all tests", func(c *Config) { c.Tests = Tests }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewRunner(cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRunner() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRunner_UnknownTestError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tests = []string{"nope"}
	if _, err := NewRunner(cfg, nil); !errors.Is(err, ErrUnknownTest) {
		t.Errorf("error = %v, want ErrUnknownTest", err)
	}
}

// ============================================================================
// Request generation
// ============================================================================

func TestRunner_Command(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeySpace = 10
	cfg.DataSize = 4
	r, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	rng := rand.New(rand.NewPCG(1, 2))

	tests := []struct {
		test string
		name string
		argc int
	}{
		{"ping", "PING", 1},
		{"set", "SET", 3},
		{"get", "GET", 2},
		{"setex", "SETEX", 4},
		{"exists", "EXISTS", 2},
		{"expire", "EXPIRE", 3},
		{"ttl", "TTL", 2},
		{"del", "DEL", 2},
	}

	for _, tt := range tests {
		args := r.command(rng, tt.test)
		if len(args) != tt.argc || string(args[0]) != tt.name {
			t.Errorf("command(%q) = %q, want %s with %d args", tt.test, args, tt.name, tt.argc)
			continue
		}
		if tt.argc > 1 && !strings.HasPrefix(string(args[1]), "key:") {
			t.Errorf("command(%q) key = %q, want key: prefix", tt.test, args[1])
		}
	}

	if v := r.command(rng, "set")[2]; string(v) != "xxxx" {
		t.Errorf("SET value = %q, want %q", v, "xxxx")
	}
}

func TestRunner_Claim(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline = 16
	r, err := NewRunner(cfg, nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	var claimed atomic.Int64
	var got []int
	for {
		n := r.claim(&claimed, 40)
		if n == 0 {
			break
		}
		got = append(got, n)
	}

	want := []int{16, 16, 8}
	if len(got) != len(want) {
		t.Fatalf("claims = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("claims = %v, want %v", got, want)
			break
		}
	}
}

func TestPercentile(t *testing.T) {
	lats := make([]time.Duration, 100)
	for i := range lats {
		lats[i] = time.Duration(i+1) * time.Millisecond
	}

	tests := []struct {
		q    float64
		want time.Duration
	}{
		{0.50, 50 * time.Millisecond},
		{0.99, 99 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{0, time.Millisecond},
	}
	for _, tt := range tests {
		if got := percentile(lats, tt.q); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("percentile(nil) = %v, want 0", got)
	}
}

func TestResult_RPS(t *testing.T) {
	r := Result{Test: "set", Requests: 1000, Elapsed: 500 * time.Millisecond}
	if got := r.RPS(); got != 2000 {
		t.Errorf("RPS() = %v, want 2000", got)
	}
	if got := (Result{}).RPS(); got != 0 {
		t.Errorf("zero Result RPS() = %v, want 0", got)
	}
	if s := r.String(); !strings.HasPrefix(s, "SET") {
		t.Errorf("String() = %q, want SET prefix", s)
	}
}
