// internal/app/features/announcements/routes.go
package announcements

import (
	"net/http"

	"github.com/WaffleZilla55/BesPick/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes builds the /api/activities router. Reads and the sweep trigger need
// a signed-in user; everything that mutates a record needs the admin role.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)
		r.Get("/", h.ListActive)
		r.Get("/archived", h.ListArchived)
		r.Get("/next-publish", h.NextPublish)
		r.Get("/{id}", h.Show)
		r.Post("/sweep", h.RunSweep)
	})

	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireRole("admin"))
		r.Get("/scheduled", h.ListScheduled)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/archive", h.Archive)
		r.Delete("/{id}", h.Delete)
	})

	return r
}
