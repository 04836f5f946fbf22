// internal/app/features/voting/voting.go
package voting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	uierrors "github.com/WaffleZilla55/BesPick/internal/app/features/errors"
	"github.com/WaffleZilla55/BesPick/internal/app/system/auth"
	"github.com/WaffleZilla55/BesPick/internal/app/system/ledger"
	"github.com/WaffleZilla55/BesPick/internal/domain/apperrors"
	"github.com/WaffleZilla55/BesPick/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// rosterRetries bounds the optimistic-concurrency retry loop on purchases.
const rosterRetries = 3

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

// loadVoting fetches the activity and confirms it is a voting event.
func (h *Handler) loadVoting(ctx context.Context, r *http.Request) (models.Activity, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return models.Activity{}, apperrors.ErrVotingEventNotFound
	}
	a, err := h.Store.GetByID(ctx, id)
	if err != nil {
		return models.Activity{}, err
	}
	if !a.IsVoting() || a.Voting == nil {
		return models.Activity{}, apperrors.ErrVotingEventNotFound
	}
	return a, nil
}

// LeaderboardRow is one entry in the leaderboard, aggregated according to the
// event's leaderboard mode.
type LeaderboardRow struct {
	Label     string `json:"label"`
	Group     string `json:"group,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
	Votes     int    `json:"votes"`
}

// EventView is the voting-event payload.
type EventView struct {
	ID              string                     `json:"id"`
	Title           string                     `json:"title"`
	AddVotePrice    float64                    `json:"add_vote_price"`
	RemoveVotePrice float64                    `json:"remove_vote_price"`
	LeaderboardMode string                     `json:"leaderboard_mode"`
	Participants    []models.VotingParticipant `json:"participants"`
	Leaderboard     []LeaderboardRow           `json:"leaderboard"`
	IsArchived      bool                       `json:"is_archived"`
}

// Show returns the voting event with its roster and leaderboard.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	a, err := h.loadVoting(r.Context(), r)
	if err != nil {
		uierrors.WriteErr(w, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, EventView{
		ID:              a.ID.Hex(),
		Title:           a.Title,
		AddVotePrice:    a.Voting.AddVotePrice,
		RemoveVotePrice: a.Voting.RemoveVotePrice,
		LeaderboardMode: a.Voting.LeaderboardMode,
		Participants:    a.Voting.Participants,
		Leaderboard:     BuildLeaderboard(a.Voting.Participants, a.Voting.LeaderboardMode),
		IsArchived:      a.EffectiveStatus(requestTime(r)) == models.StatusArchived,
	})
}

// BuildLeaderboard aggregates the roster per the event's leaderboard mode:
// individual rows, one row per group, or one row per (group, portfolio) pair.
// Participants without a group land in an "Ungrouped" bucket. Rows come back
// sorted by votes descending, ties broken by label.
func BuildLeaderboard(participants []models.VotingParticipant, mode string) []LeaderboardRow {
	var rows []LeaderboardRow

	switch mode {
	case models.LeaderboardGroup, models.LeaderboardGroupPortfolio:
		type key struct{ group, portfolio string }
		totals := make(map[key]int)
		order := make([]key, 0)
		for _, p := range participants {
			k := key{group: p.Group}
			if k.group == "" {
				k.group = "Ungrouped"
			}
			if mode == models.LeaderboardGroupPortfolio {
				k.portfolio = p.Portfolio
			}
			if _, seen := totals[k]; !seen {
				order = append(order, k)
			}
			totals[k] += p.Votes
		}
		rows = make([]LeaderboardRow, 0, len(order))
		for _, k := range order {
			label := k.group
			if k.portfolio != "" {
				label = k.group + " / " + k.portfolio
			}
			rows = append(rows, LeaderboardRow{
				Label:     label,
				Group:     k.group,
				Portfolio: k.portfolio,
				Votes:     totals[k],
			})
		}
	default: // LeaderboardAll and anything unrecognized
		rows = make([]LeaderboardRow, 0, len(participants))
		for _, p := range participants {
			label := p.FirstName
			if p.LastName != "" {
				if label != "" {
					label += " "
				}
				label += p.LastName
			}
			if label == "" {
				label = p.UserID
			}
			rows = append(rows, LeaderboardRow{
				Label:     label,
				Group:     p.Group,
				Portfolio: p.Portfolio,
				Votes:     p.Votes,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Votes != rows[j].Votes {
			return rows[i].Votes > rows[j].Votes
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}

type purchaseRequest struct {
	Adjustments []ledger.Adjustment `json:"adjustments"`
}

// Purchase applies a batch of vote-credit adjustments to the roster snapshot.
// The whole batch validates before any balance moves; the write is guarded by
// the roster revision read and retried on conflict.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.Write(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Wall clock only; the ?now= override is for read views, not writes.
	now := time.Now().UTC()

	var receipt ledger.Receipt
	var lastErr error
	for attempt := 0; attempt < rosterRetries; attempt++ {
		a, err := h.loadVoting(r.Context(), r)
		if err != nil {
			uierrors.WriteErr(w, h.Log, err)
			return
		}
		if a.EffectiveStatus(now) == models.StatusArchived {
			uierrors.WriteErr(w, h.Log, apperrors.ErrVotingArchived)
			return
		}

		updated, rec, changed, err := ledger.ApplyAdjustments(
			a.Voting.Participants, req.Adjustments,
			a.Voting.AddVotePrice, a.Voting.RemoveVotePrice)
		if err != nil {
			uierrors.WriteErr(w, h.Log, err)
			return
		}
		receipt = rec
		if !changed {
			writeJSON(w, http.StatusOK, receipt)
			return
		}

		err = h.Store.ReplaceRoster(r.Context(), a.ID, a.RosterRev, updated, u.ID, now)
		if err == nil {
			writeJSON(w, http.StatusOK, receipt)
			return
		}
		lastErr = err
		if !errors.Is(err, apperrors.ErrRosterConflict) {
			h.Log.Error("failed to write roster", zap.Error(err), zap.String("activity_id", a.ID.Hex()))
			uierrors.Write(w, http.StatusInternalServerError, "internal error")
			return
		}
		// Lost the revision race; re-read the roster and revalidate the batch.
	}

	uierrors.WriteErr(w, h.Log, lastErr)
}
