// internal/app/features/announcements/announcements.go
package announcements

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/WaffleZilla55/BesPick/internal/app/features/errors"
	"github.com/WaffleZilla55/BesPick/internal/app/system/auth"
	"github.com/WaffleZilla55/BesPick/internal/app/system/htmlsanitize"
	"github.com/WaffleZilla55/BesPick/internal/app/system/inputval"
	"github.com/WaffleZilla55/BesPick/internal/app/system/workers"
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

// requestTime returns the clock for the request: the ?now= epoch-ms override
// when present, otherwise the wall clock. The override keeps lifecycle
// behavior exercisable from tests and scripts.
func requestTime(r *http.Request) time.Time {
	if raw := r.URL.Query().Get("now"); raw != "" {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC()
		}
	}
	return time.Now().UTC()
}

// sanitizeInput strips markup from the plain-text fields and scrubs the
// rich-text description before normalization sees any of it.
func sanitizeInput(in *inputval.ActivityInput) {
	in.Title = htmlsanitize.Strip(in.Title)
	in.Description = htmlsanitize.Sanitize(in.Description)
	if in.PollQuestion != nil {
		q := htmlsanitize.Strip(*in.PollQuestion)
		in.PollQuestion = &q
	}
	for i := range in.PollOptions {
		in.PollOptions[i] = htmlsanitize.Strip(in.PollOptions[i])
	}
	for i := range in.VotingParticipants {
		p := &in.VotingParticipants[i]
		p.FirstName = htmlsanitize.Strip(p.FirstName)
		p.LastName = htmlsanitize.Strip(p.LastName)
		p.Group = htmlsanitize.Strip(p.Group)
		p.Portfolio = htmlsanitize.Strip(p.Portfolio)
	}
}

func parseID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// ListActive returns every activity whose effective status is published,
// newest first.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListActive(r.Context(), requestTime(r))
	if err != nil {
		h.Log.Error("failed to list active activities", zap.Error(err), zap.String("path", r.URL.Path))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []models.Activity{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ListScheduled returns activities still waiting to publish, soonest first.
func (h *Handler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListScheduled(r.Context(), requestTime(r))
	if err != nil {
		h.Log.Error("failed to list scheduled activities", zap.Error(err), zap.String("path", r.URL.Path))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []models.Activity{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ListArchived returns archived activities, newest first.
func (h *Handler) ListArchived(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListArchived(r.Context())
	if err != nil {
		h.Log.Error("failed to list archived activities", zap.Error(err), zap.String("path", r.URL.Path))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []models.Activity{}
	}
	writeJSON(w, http.StatusOK, items)
}

// NextPublish reports the earliest future publish instant, or null when no
// activity is scheduled. Clients use it to time their next refresh.
func (h *Handler) NextPublish(w http.ResponseWriter, r *http.Request) {
	next, err := h.Store.NextPublishAt(r.Context(), requestTime(r))
	if err != nil {
		h.Log.Error("failed to find next publish time", zap.Error(err), zap.String("path", r.URL.Path))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		NextPublishAt *time.Time `json:"next_publish_at"`
	}{NextPublishAt: next})
}

// Show returns one activity with its display status resolved against the
// request clock.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		uierrors.Write(w, http.StatusNotFound, "activity not found")
		return
	}

	a, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}
	a.Status = a.EffectiveStatus(requestTime(r))
	writeJSON(w, http.StatusOK, a)
}

// Create validates and stores a new activity.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	var in inputval.ActivityInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		uierrors.Write(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sanitizeInput(&in)

	now := requestTime(r)
	normalized, err := inputval.NormalizeActivity(in, nil, now)
	if err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}

	created, err := h.Store.Create(r.Context(), normalized, u.ID, now)
	if err != nil {
		h.Log.Error("failed to create activity", zap.Error(err), zap.String("path", r.URL.Path))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update revalidates the merged field set and overwrites the record. Omitted
// fields keep their stored values.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	id, ok := parseID(r)
	if !ok {
		uierrors.Write(w, http.StatusNotFound, "activity not found")
		return
	}

	existing, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}

	var in inputval.ActivityInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		uierrors.Write(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sanitizeInput(&in)

	now := requestTime(r)
	normalized, err := inputval.NormalizeActivity(in, &existing, now)
	if err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}

	if err := h.Store.Update(r.Context(), id, normalized, u.ID, now); err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}

	updated, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Archive marks an activity archived. The transition is terminal.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	id, ok := parseID(r)
	if !ok {
		uierrors.Write(w, http.StatusNotFound, "activity not found")
		return
	}

	if err := h.Store.Archive(r.Context(), id, u.ID, requestTime(r)); err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}

	a, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delete removes an activity and cascades its poll votes.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		uierrors.Write(w, http.StatusNotFound, "activity not found")
		return
	}

	// Cascade first: an orphaned vote with no poll is worse than a vote
	// removed for an activity whose delete then fails.
	votesRemoved, err := h.Votes.DeleteByActivity(r.Context(), id)
	if err != nil {
		h.Log.Error("failed to cascade poll votes", zap.Error(err), zap.String("activity_id", id.Hex()))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}

	deleted, err := h.Store.Delete(r.Context(), id)
	if err != nil {
		h.Log.Error("failed to delete activity", zap.Error(err), zap.String("activity_id", id.Hex()))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}
	if deleted == 0 {
		uierrors.Write(w, http.StatusNotFound, "activity not found")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Deleted      bool  `json:"deleted"`
		VotesRemoved int64 `json:"votes_removed"`
	}{Deleted: true, VotesRemoved: votesRemoved})
}

// RunSweep triggers one lifecycle pass and reports what changed. Safe to call
// repeatedly; every write carries its precondition in the filter.
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Sweep(r.Context(), requestTime(r))
	if err != nil {
		h.Log.Error("lifecycle sweep failed", zap.Error(err))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// Sweep runs one lifecycle pass: publish due records, delete past auto-delete
// (cascading poll votes), archive past auto-archive. It satisfies
// workers.Sweeper so the background worker and the HTTP trigger share one
// implementation.
func (h *Handler) Sweep(ctx context.Context, now time.Time) (workers.SweepCounts, error) {
	var counts workers.SweepCounts

	published, err := h.Store.PublishDue(ctx, now)
	if err != nil {
		return counts, err
	}
	counts.Published = published

	due, err := h.Store.FindAutoDeleteDue(ctx, now)
	if err != nil {
		return counts, err
	}
	for _, a := range due {
		if a.IsPoll() {
			if _, err := h.Votes.DeleteByActivity(ctx, a.ID); err != nil {
				return counts, err
			}
		}
		n, err := h.Store.DeleteIfStillDue(ctx, a.ID, now)
		if err != nil {
			return counts, err
		}
		counts.Deleted += n
	}

	archived, err := h.Store.ArchiveDue(ctx, now)
	if err != nil {
		return counts, err
	}
	counts.Archived = archived

	return counts, nil
}
