package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/shardkv/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Metrics serves GET /metrics. Nil disables the route.
	Metrics http.Handler

	// Status reports server state for /ready and /info.
	Status handler.StatusSource

	// Logger for request logging.
	Logger *slog.Logger

	// RateLimit is the per-IP request rate (requests/second). 0 disables it.
	RateLimit float64

	// AccessLog enables request logging.
	AccessLog bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:    slog.Default(),
		RateLimit: 50,
		AccessLog: true,
	}
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := handler.New(cfg.Status, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /health", h)
	mux.Handle("GET /ready", h)
	mux.Handle("GET /info", h)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	// Order: Recover -> RequestID -> RateLimit -> AccessLog -> mux
	middlewares := []Middleware{
		Recover(logger),
		RequestID(),
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	if cfg.AccessLog {
		middlewares = append(middlewares, AccessLog(logger))
	}

	return Chain(mux, middlewares...)
}
