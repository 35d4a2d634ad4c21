package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/shardkv/internal/server/redisserver"
)

var _ redisserver.Metrics = (*Registry)(nil)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func expectLine(t *testing.T, body, line string) {
	t.Helper()
	for _, l := range strings.Split(body, "\n") {
		if l == line {
			return
		}
	}
	t.Errorf("metrics output missing line %q", line)
}

// ============================================================================
// Registry
// ============================================================================

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	body := scrape(t, r)

	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	if !strings.Contains(body, "process_") {
		t.Error("expected process metrics")
	}
	expectLine(t, body, "shardkv_connections_active 0")
}

func TestConnectionMetrics(t *testing.T) {
	r := NewRegistry()

	r.ConnectionOpened()
	r.ConnectionOpened()
	r.ConnectionClosed()
	r.ConnectionRejected()

	body := scrape(t, r)
	expectLine(t, body, "shardkv_connections_active 1")
	expectLine(t, body, "shardkv_connections_total 2")
	expectLine(t, body, "shardkv_connections_rejected_total 1")
}

func TestCommandMetrics(t *testing.T) {
	r := NewRegistry()

	r.CommandDone("SET", 10*time.Microsecond, false)
	r.CommandDone("SET", 20*time.Microsecond, false)
	r.CommandDone("unknown", time.Microsecond, true)
	r.FramingError()

	body := scrape(t, r)
	expectLine(t, body, `shardkv_commands_total{command="SET",result="ok"} 2`)
	expectLine(t, body, `shardkv_commands_total{command="unknown",result="error"} 1`)
	expectLine(t, body, `shardkv_command_duration_seconds_count{command="SET"} 2`)
	expectLine(t, body, "shardkv_framing_errors_total 1")
}

func TestSetBuildInfo(t *testing.T) {
	r := NewRegistry()
	r.SetBuildInfo("v1.0.0", "abc123", "01HZRUN")

	body := scrape(t, r)
	expectLine(t, body, `shardkv_build_info{commit="abc123",run_id="01HZRUN",version="v1.0.0"} 1`)
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.ConnectionOpened()
			r.CommandDone("GET", time.Microsecond, false)
			r.ConnectionClosed()
		}()
	}
	wg.Wait()

	body := scrape(t, r)
	expectLine(t, body, "shardkv_connections_active 0")
	expectLine(t, body, "shardkv_connections_total 50")
	expectLine(t, body, `shardkv_commands_total{command="GET",result="ok"} 50`)
}
