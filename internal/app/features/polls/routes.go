// internal/app/features/polls/routes.go
package polls

import (
	"net/http"

	"github.com/WaffleZilla55/BesPick/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes builds the /api/polls router. Viewing and voting need a signed-in
// user; the voter breakdown is admin-only.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)
		r.Get("/{id}", h.Show)
		r.Post("/{id}/vote", h.Vote)
	})

	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireRole("admin"))
		r.Get("/{id}/breakdown", h.Breakdown)
	})

	return r
}
