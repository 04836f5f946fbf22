// internal/app/features/members/routes.go
package members

import (
	"net/http"

	"github.com/WaffleZilla55/BesPick/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes builds the /api/admin router. Everything here is admin-only.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole("admin"))

	r.Get("/roster", h.Roster)
	r.Get("/users", h.List)
	r.Put("/users/{id}/role", h.UpdateRole)

	return r
}
