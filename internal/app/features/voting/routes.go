// internal/app/features/voting/routes.go
package voting

import (
	"net/http"

	"github.com/WaffleZilla55/BesPick/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes builds the /api/voting router. All routes need a signed-in user;
// purchases are recorded against whoever submits them.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)

	r.Get("/{id}", h.Show)
	r.Post("/{id}/purchase", h.Purchase)

	return r
}
