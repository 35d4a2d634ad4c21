package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/shardkv/internal/server/httpserver/handler"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type readySource struct{ ready bool }

func (s *readySource) Ready() bool { return s.ready }
func (s *readySource) Status() handler.Status {
	return handler.Status{Version: "test", Keys: 7}
}

// ============================================================================
// Server lifecycle
// ============================================================================

func TestNew(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s := New(":8080", handler)
	if s.httpServer == nil {
		t.Fatal("httpServer is nil")
	}
	if s.handler == nil {
		t.Error("handler is nil")
	}
	if s.Addr() != ":8080" {
		t.Errorf("Addr() = %q, want :8080", s.Addr())
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	s := New(ln.Addr().String(), NewRouter(&RouterConfig{Logger: discardLogger()}))
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve(ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Serve returned %v, want ErrServerClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for Serve to return")
	}
}

// ============================================================================
// Router
// ============================================================================

func TestNewRouter_Routes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "shardkv_keys 7\n")
	})
	src := &readySource{}
	router := NewRouter(&RouterConfig{
		Metrics: metrics,
		Status:  src,
		Logger:  discardLogger(),
	})

	tests := []struct {
		method string
		path   string
		code   int
		body   string
	}{
		{http.MethodGet, "/health", http.StatusOK, "healthy"},
		{http.MethodGet, "/ready", http.StatusServiceUnavailable, "NOT_READY"},
		{http.MethodGet, "/info", http.StatusOK, `"keys":7`},
		{http.MethodGet, "/metrics", http.StatusOK, "shardkv_keys 7"},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.code {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, tt.code)
		}
		if !strings.Contains(rec.Body.String(), tt.body) {
			t.Errorf("%s %s body = %q, want %q", tt.method, tt.path, rec.Body.String(), tt.body)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s %s missing X-Request-ID", tt.method, tt.path)
		}
	}

	src.ready = true
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/ready after startup status = %d, want 200", rec.Code)
	}
}

func TestNewRouter_NoMetrics(t *testing.T) {
	router := NewRouter(&RouterConfig{Logger: discardLogger()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("/metrics status = %d, want 404", rec.Code)
	}
}

func TestDefaultRouterConfig(t *testing.T) {
	cfg := DefaultRouterConfig()
	if cfg.RateLimit <= 0 {
		t.Error("RateLimit should be positive")
	}
	if cfg.Logger == nil {
		t.Error("Logger should be set")
	}
}
