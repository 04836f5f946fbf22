// internal/app/features/polls/polls.go
package polls

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/WaffleZilla55/BesPick/internal/app/features/errors"
	"github.com/WaffleZilla55/BesPick/internal/app/system/auth"
	"github.com/WaffleZilla55/BesPick/internal/app/system/htmlsanitize"
	"github.com/WaffleZilla55/BesPick/internal/app/system/pollrules"
	"github.com/WaffleZilla55/BesPick/internal/app/system/txn"
	"github.com/WaffleZilla55/BesPick/internal/domain/apperrors"
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

func requestTime(r *http.Request) time.Time {
	if raw := r.URL.Query().Get("now"); raw != "" {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC()
		}
	}
	return time.Now().UTC()
}

// displayName resolves the recorded voter label: name, then email, then the
// bare subject id.
func displayName(u *auth.SessionUser) string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

// loadPoll fetches the activity and confirms it is a poll.
func (h *Handler) loadPoll(ctx context.Context, r *http.Request) (models.Activity, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return models.Activity{}, apperrors.ErrPollNotFound
	}
	a, err := h.Store.GetByID(ctx, id)
	if err != nil {
		return models.Activity{}, err
	}
	if !a.IsPoll() || a.Poll == nil {
		return models.Activity{}, apperrors.ErrPollNotFound
	}
	return a, nil
}

// PollView is the per-caller poll payload.
type PollView struct {
	ID            string                  `json:"id"`
	Question      string                  `json:"question"`
	Options       []pollrules.OptionCount `json:"options"`
	TotalVotes    int                     `json:"total_votes"`
	MaxSelections int                     `json:"max_selections"`
	AllowNew      bool                    `json:"allow_additional_options"`
	Anonymous     bool                    `json:"anonymous"`
	IsClosed      bool                    `json:"is_closed"`
	IsArchived    bool                    `json:"is_archived"`
	MySelections  []string                `json:"my_selections"`
	HasVoted      bool                    `json:"has_voted"`
	ClosesAt      *time.Time              `json:"closes_at,omitempty"`
}

// Show returns the poll with tallies and the caller's own selections.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	a, err := h.loadPoll(r.Context(), r)
	if err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}

	votes, err := h.Votes.ListByActivity(r.Context(), a.ID)
	if err != nil {
		h.Log.Error("failed to list poll votes", zap.Error(err), zap.String("activity_id", a.ID.Hex()))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}

	counts, total := pollrules.Tally(a.Poll.Options, votes)

	now := requestTime(r)
	view := PollView{
		ID:            a.ID.Hex(),
		Question:      a.Poll.Question,
		Options:       counts,
		TotalVotes:    total,
		MaxSelections: a.Poll.MaxSelections,
		AllowNew:      a.Poll.AllowAdditionalOptions,
		Anonymous:     a.Poll.Anonymous,
		IsClosed:      a.Poll.ClosesAt != nil && !a.Poll.ClosesAt.After(now),
		IsArchived:    a.EffectiveStatus(now) == models.StatusArchived,
		MySelections:  []string{},
		ClosesAt:      a.Poll.ClosesAt,
	}

	mine, err := h.Votes.GetByActivityUser(r.Context(), a.ID, u.ID)
	if err != nil {
		h.Log.Error("failed to load caller vote", zap.Error(err), zap.String("activity_id", a.ID.Hex()))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}
	if mine != nil {
		view.MySelections = mine.Selections
		view.HasVoted = true
	}

	writeJSON(w, http.StatusOK, view)
}

type voteRequest struct {
	Selections []string `json:"selections"`
	NewOption  string   `json:"newOption"`
}

// Vote records or replaces the caller's selections. A new option, when the
// poll allows growth, is appended and the vote recorded in one transaction;
// on deployments without transaction support the two writes run sequentially.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	a, err := h.loadPoll(r.Context(), r)
	if err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}

	// State enforcement uses the wall clock. The ?now= override only shapes
	// read views; honoring it here would let a caller vote on a closed poll.
	now := time.Now().UTC()
	if a.EffectiveStatus(now) == models.StatusArchived {
		uierrors.WriteErr(w, h.Log, apperrors.ErrPollArchived)
		return
	}
	if a.Poll.ClosesAt != nil && !a.Poll.ClosesAt.After(now) {
		uierrors.WriteErr(w, h.Log, apperrors.ErrPollClosed)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.Write(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.NewOption = htmlsanitize.Strip(req.NewOption)

	res, err := pollrules.ResolveVote(a.Poll.Options, req.Selections, req.NewOption,
		a.Poll.AllowAdditionalOptions, a.Poll.MaxSelections)
	if err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}

	voter := displayName(u)
	_, err = txn.WithTransaction(r.Context(), h.DB.Client(), func(ctx context.Context) error {
		if res.AddedOption != "" {
			if err := h.Store.SetPollOptions(ctx, a.ID, res.Options); err != nil {
				return err
			}
		}
		return h.Votes.Upsert(ctx, a.ID, u.ID, voter, res.Selections, now)
	})
	if err != nil {
		h.Log.Error("failed to record vote", zap.Error(err), zap.String("activity_id", a.ID.Hex()))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Selections  []string `json:"selections"`
		AddedOption string   `json:"added_option,omitempty"`
	}{Selections: res.Selections, AddedOption: res.AddedOption})
}

// Breakdown returns the per-option voter lists, including options that only
// survive in recorded votes.
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	a, err := h.loadPoll(r.Context(), r)
	if err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}

	votes, err := h.Votes.ListByActivity(r.Context(), a.ID)
	if err != nil {
		h.Log.Error("failed to list poll votes", zap.Error(err), zap.String("activity_id", a.ID.Hex()))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Question  string                      `json:"question"`
		Anonymous bool                        `json:"anonymous"`
		Options   []pollrules.OptionBreakdown `json:"options"`
	}{
		Question:  a.Poll.Question,
		Anonymous: a.Poll.Anonymous,
		Options:   pollrules.Breakdown(a.Poll.Options, votes),
	})
}
