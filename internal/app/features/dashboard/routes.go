// internal/app/features/dashboard/routes.go
package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a chi.Router with dashboard routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.ServeDashboard)
	r.Post("/filters", h.HandleFilters)
	r.Post("/reset", h.HandleReset)
	r.Get("/view.json", h.ServeViewJSON)
	r.Get("/export.csv", h.ServeCSV)
	return r
}
