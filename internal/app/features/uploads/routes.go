// internal/app/features/uploads/routes.go
package uploads

import (
	"net/http"

	"github.com/WaffleZilla55/BesPick/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes builds the /uploads router. Everything requires a signed-in user.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)

	r.Post("/images", h.Upload)
	r.Get("/images/{id}", h.Serve)
	r.Post("/images/resolve", h.Resolve)

	return r
}
