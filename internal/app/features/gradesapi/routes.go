package gradesapi

import (
	"net/http"

	"github.com/dalemusser/stratagrades/internal/app/system/apicors"
	"github.com/dalemusser/stratagrades/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns the public payload router, mounted at /grades.
//
// CORS is permissive; the payload carries no credentials.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(apicors.Middleware())
	r.Get("/", h.GetGrades)
	return r
}

// APIRoutes returns the ingest router, mounted at /api/grades.
//
//   - POST /api/grades/sync
//   - POST /api/grades/session
//   - GET  /api/grades/ledger
//
// Authentication is via API key (Bearer token in Authorization header).
func APIRoutes(h *Handler, apiKey string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(apicors.Middleware())
	r.Use(auth.APIKeyAuth(apiKey, logger))
	r.Post("/sync", h.Sync)
	r.Post("/session", h.UpdateSession)
	r.Get("/ledger", h.Ledger)
	return r
}
