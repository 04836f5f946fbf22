// internal/app/system/ledger/ledger.go

// Package ledger applies bulk vote-credit adjustments to a voting event's
// roster snapshot. Validation is all-or-nothing: any bad adjustment rejects
// the whole batch before a single balance moves.
package ledger

import (
	"fmt"
	"math"

	"github.com/WaffleZilla55/BesPick/internal/domain/apperrors"
	"github.com/WaffleZilla55/BesPick/internal/domain/models"
)

// Adjustment is one requested balance change. Add and Remove arrive as JSON
// numbers and are floored to non-negative integers before use.
type Adjustment struct {
	UserID string  `json:"userId"`
	Add    float64 `json:"add"`
	Remove float64 `json:"remove"`
}

// Receipt reports the priced totals of an applied batch.
type Receipt struct {
	VotesAdded   int     `json:"votes_added"`
	VotesRemoved int     `json:"votes_removed"`
	TotalPrice   float64 `json:"total_price"`
}

// ApplyAdjustments validates every adjustment against the roster and, only if
// the entire batch is valid, returns the updated roster. changed is false
// when every adjustment was a no-op; callers skip the write in that case.
// The input roster is never mutated.
func ApplyAdjustments(participants []models.VotingParticipant, adjustments []Adjustment, addPrice, removePrice float64) (updated []models.VotingParticipant, receipt Receipt, changed bool, err error) {
	byUser := make(map[string]int, len(participants))
	for i, p := range participants {
		byUser[p.UserID] = i
	}

	updated = append([]models.VotingParticipant(nil), participants...)
	// Validate and stage against the copy; balances already adjusted earlier
	// in the batch are visible to later adjustments for the same user.
	for _, adj := range adjustments {
		add := floorNonNegative(adj.Add)
		remove := floorNonNegative(adj.Remove)
		if add == 0 && remove == 0 {
			continue
		}
		i, ok := byUser[adj.UserID]
		if !ok {
			return nil, Receipt{}, false, fmt.Errorf("%w: %s", apperrors.ErrParticipantNotFound, adj.UserID)
		}
		if remove > updated[i].Votes {
			return nil, Receipt{}, false, fmt.Errorf("%w: %s has %d", apperrors.ErrInsufficientVotes, adj.UserID, updated[i].Votes)
		}
		balance := updated[i].Votes + add - remove
		if balance != updated[i].Votes {
			changed = true
		}
		updated[i].Votes = balance
		receipt.VotesAdded += add
		receipt.VotesRemoved += remove
	}

	receipt.TotalPrice = math.Round((float64(receipt.VotesAdded)*addPrice+float64(receipt.VotesRemoved)*removePrice)*100) / 100
	if !changed {
		return participants, receipt, false, nil
	}
	return updated, receipt, true, nil
}

// floorNonNegative turns a JSON number into a whole vote count. Converting an
// out-of-range float64 to int is not defined (amd64 yields min-int), so the
// clamp to [0, MaxInt32] happens while the value is still a float.
func floorNonNegative(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(v))
}
