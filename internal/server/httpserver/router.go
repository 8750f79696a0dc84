package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yndnr/timerelay-go/internal/infra/buildinfo"
	"github.com/yndnr/timerelay-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the admin router.
type RouterConfig struct {
	// Logger for request logging.
	Logger *slog.Logger

	// Metrics serves /metrics. Nil serves the global registry.
	Metrics http.Handler

	// Stats reports live server state for /healthz. Nil always reports healthy
	// without counters.
	Stats func() (metric.Stats, bool)

	// AllowList is the IP/CIDR allowlist (empty = no restriction).
	AllowList []string

	// RateLimit is the per-IP rate limit in requests/second. Zero disables it.
	RateLimit int
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status        string `json:"status"`
	Keys          int    `json:"keys"`
	PendingTasks  int    `json:"pending_tasks"`
	Connections   int    `json:"connections"`
	QueuedReplies int    `json:"queued_replies"`
}

// NewRouter creates the admin router with all routes and middleware.
//
// Middleware order: Recover -> RequestID -> NetworkACL -> RateLimit -> Audit -> route.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = metric.Handler()
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics)
	mux.HandleFunc("GET /healthz", healthHandler(cfg.Stats))
	mux.HandleFunc("GET /version", versionHandler)

	middlewares := []Middleware{
		Recover(logger),
		RequestID(),
	}
	if len(cfg.AllowList) > 0 {
		middlewares = append(middlewares, NetworkACL(&NetworkACLConfig{
			AllowList: cfg.AllowList,
			Logger:    logger,
		}))
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	middlewares = append(middlewares, Audit(logger))

	return Chain(mux, middlewares...)
}

func healthHandler(stats func() (metric.Stats, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if stats == nil {
			writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
			return
		}
		st, ok := stats()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:        "ok",
			Keys:          st.Keys,
			PendingTasks:  st.PendingTasks,
			Connections:   st.Connections,
			QueuedReplies: st.QueuedReplies,
		})
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
