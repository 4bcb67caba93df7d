// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratagrades/internal/app/system/jsonutil"
	"github.com/dalemusser/stratagrades/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger checks database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type mongoPinger struct {
	client *mongo.Client
}

func (p mongoPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, readpref.Primary())
}

// Handler provides health check endpoints.
type Handler struct {
	db     Pinger
	logger *zap.Logger
}

// NewHandler creates a health Handler that pings MongoDB.
func NewHandler(mongoClient *mongo.Client, logger *zap.Logger) *Handler {
	return NewHandlerWithPinger(mongoPinger{client: mongoClient}, logger)
}

// NewHandlerWithPinger creates a health Handler over any Pinger.
func NewHandlerWithPinger(p Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{db: p, logger: logger}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with /health, /health/ready and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the Kubernetes probe paths on the root router:
// /ready, /readyz and /livez.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// Check reports each dependency. Any failure makes the response 503.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Status:   "ok",
		Services: map[string]string{},
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Services["mongodb"] = "unavailable"
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
	} else {
		resp.Services["mongodb"] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	jsonutil.JSON(w, status, resp)
}

// Ready is the readiness probe.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		jsonutil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	jsonutil.OK(w, map[string]string{"status": "ready"})
}

// Live is the liveness probe. It never touches dependencies.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"status": "alive"})
}
