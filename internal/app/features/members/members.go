// internal/app/features/members/members.go
package members

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/WaffleZilla55/BesPick/internal/app/features/errors"
	userstore "github.com/WaffleZilla55/BesPick/internal/app/store/users"
	"github.com/WaffleZilla55/BesPick/internal/app/system/normalize"
	"github.com/WaffleZilla55/BesPick/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RosterCandidate is one user eligible for a voting-event roster.
type RosterCandidate struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
	Group     string `json:"group,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// Roster lists active users eligible for a voting-event roster. Optional
// filters narrow the list: ?groups=a,b, ?portfolios=x,y, ?ungrouped=true.
// A user qualifies by matching any filter; with no filters everyone active
// qualifies.
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListRosterCandidates(r.Context())
	if err != nil {
		h.Log.Error("failed to list roster candidates", zap.Error(err))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}

	groups := splitFilter(r.URL.Query().Get("groups"))
	portfolios := splitFilter(r.URL.Query().Get("portfolios"))
	ungrouped := r.URL.Query().Get("ungrouped") == "true"
	filtered := len(groups) > 0 || len(portfolios) > 0 || ungrouped

	out := make([]RosterCandidate, 0, len(users))
	for _, u := range users {
		if filtered && !eligible(u, groups, portfolios, ungrouped) {
			continue
		}
		out = append(out, RosterCandidate{
			UserID:    u.ID.Hex(),
			FirstName: u.FirstName,
			LastName:  u.LastName,
			FullName:  u.FullName,
			Group:     u.Group,
			Portfolio: u.Portfolio,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func splitFilter(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func eligible(u models.User, groups, portfolios []string, ungrouped bool) bool {
	for _, g := range groups {
		if strings.EqualFold(u.Group, g) {
			return true
		}
	}
	for _, p := range portfolios {
		if strings.EqualFold(u.Portfolio, p) {
			return true
		}
	}
	return ungrouped && u.Group == ""
}

// List returns every user, for the admin user-management screen.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListAll(r.Context())
	if err != nil {
		h.Log.Error("failed to list users", zap.Error(err))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type roleRequest struct {
	Role string `json:"role"`
}

// UpdateRole assigns a user's role.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.Write(w, http.StatusNotFound, "user not found")
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.Write(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role := normalize.Role(req.Role)
	if role != "admin" && role != "member" {
		uierrors.Write(w, http.StatusBadRequest, `role must be "admin" or "member"`)
		return
	}

	if err := h.Users.UpdateRole(r.Context(), id, role); err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			uierrors.Write(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("failed to update role", zap.Error(err), zap.String("user_id", id.Hex()))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}{ID: id.Hex(), Role: role})
}
