package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether the storage engine can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pinger backs /ready; nil means always ready.
	Pinger Pinger
	// Metrics serves /metrics; nil disables the route.
	Metrics http.Handler
	Logger  *slog.Logger
	Version string

	// ReadyTimeout bounds the readiness ping.
	ReadyTimeout time.Duration
}

// DefaultRouterConfig returns the default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:       slog.Default(),
		ReadyTimeout: 2 * time.Second,
	}
}

type router struct {
	cfg *RouterConfig
	mux *http.ServeMux
}

// NewRouter creates the operations handler with its middleware chain.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg == nil {
		cfg = DefaultRouterConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Second
	}

	rt := &router{cfg: cfg, mux: http.NewServeMux()}
	rt.mux.HandleFunc("GET /health", rt.handleHealth)
	rt.mux.HandleFunc("GET /ready", rt.handleReady)
	if cfg.Metrics != nil {
		rt.mux.Handle("GET /metrics", cfg.Metrics)
	}

	return Chain(rt.mux,
		RequestID(),
		Recover(cfg.Logger),
		AccessLog(cfg.Logger),
	)
}

// handleHealth handles GET /health.
func (rt *router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": rt.cfg.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready.
func (rt *router) handleReady(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.Pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), rt.cfg.ReadyTimeout)
		defer cancel()
		if err := rt.cfg.Pinger.Ping(ctx); err != nil {
			rt.cfg.Logger.Warn("readiness check failed",
				"request_id", GetRequestIDFromContext(r.Context()),
				"error", err,
			)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
