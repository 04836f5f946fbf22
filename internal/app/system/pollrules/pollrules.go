// internal/app/system/pollrules/pollrules.go

// Package pollrules holds the pure selection/tally logic for polls. The
// feature layer loads state, calls in here, then persists whatever came back.
package pollrules

import (
	"fmt"
	"strings"

	"github.com/WaffleZilla55/BesPick/internal/domain/apperrors"
	"github.com/WaffleZilla55/BesPick/internal/domain/models"
)

// VoteResolution is the outcome of validating one vote request against a
// poll's current option list.
type VoteResolution struct {
	// Options is the option list after any growth; equal to the input list
	// when nothing was added.
	Options []string
	// AddedOption is the freshly appended option value, or "" if none.
	AddedOption string
	// Selections is the final deduplicated selection set to record.
	Selections []string
}

// ResolveVote applies the voting rules: an optional new option is
// canonicalized case-insensitively against the existing list (appending only
// when truly new, and only when the poll allows growth), then merged with the
// explicit selections, which must be non-empty, within maxSelections, and all
// drawn from the (possibly extended) option list.
func ResolveVote(options []string, selections []string, newOption string, allowAdditional bool, maxSelections int) (VoteResolution, error) {
	res := VoteResolution{Options: options}

	newOption = strings.TrimSpace(newOption)
	resolved := ""
	if newOption != "" {
		if !allowAdditional {
			return VoteResolution{}, apperrors.ErrNewOptionsNotAllowed
		}
		resolved = newOption
		for _, opt := range options {
			if strings.EqualFold(opt, newOption) {
				resolved = opt
				break
			}
		}
		if resolved == newOption && !contains(options, newOption) {
			res.Options = append(append([]string(nil), options...), newOption)
			res.AddedOption = newOption
		}
	}

	merged := make([]string, 0, len(selections)+1)
	seen := make(map[string]struct{}, len(selections)+1)
	for _, sel := range selections {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		if _, dup := seen[sel]; dup {
			continue
		}
		seen[sel] = struct{}{}
		merged = append(merged, sel)
	}
	if resolved != "" {
		if _, dup := seen[resolved]; !dup {
			merged = append(merged, resolved)
		}
	}

	if len(merged) == 0 {
		return VoteResolution{}, apperrors.ErrNoSelection
	}
	if maxSelections < 1 {
		maxSelections = 1
	}
	if len(merged) > maxSelections {
		plural := ""
		if maxSelections > 1 {
			plural = "s"
		}
		return VoteResolution{}, fmt.Errorf("%w: you can select up to %d option%s", apperrors.ErrTooManySelections, maxSelections, plural)
	}
	for _, sel := range merged {
		if !contains(res.Options, sel) {
			return VoteResolution{}, apperrors.ErrInvalidOption
		}
	}

	res.Selections = merged
	return res, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// OptionCount is a tallied option with its vote count.
type OptionCount struct {
	Value string `json:"value"`
	Votes int    `json:"votes"`
}

// Tally counts selection occurrences per declared option and the total number
// of selections across all votes (not the number of voters).
func Tally(options []string, votes []models.PollVote) (counts []OptionCount, totalVotes int) {
	byValue := make(map[string]int)
	for _, vote := range votes {
		totalVotes += len(vote.Selections)
		for _, sel := range vote.Selections {
			byValue[sel]++
		}
	}
	counts = make([]OptionCount, 0, len(options))
	for _, opt := range options {
		counts = append(counts, OptionCount{Value: opt, Votes: byValue[opt]})
	}
	return counts, totalVotes
}

// Voter identifies one voter of an option in the admin breakdown.
type Voter struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// OptionBreakdown lists the voters behind one option value.
type OptionBreakdown struct {
	Value     string  `json:"value"`
	Voters    []Voter `json:"voters"`
	VoteCount int     `json:"vote_count"`
}

// Breakdown builds the per-option voter lists. Options that appear only in
// recorded votes (e.g. removed from the poll after votes were cast) are kept,
// appended after the declared options in first-seen order.
func Breakdown(options []string, votes []models.PollVote) []OptionBreakdown {
	index := make(map[string]int, len(options))
	out := make([]OptionBreakdown, 0, len(options))
	for _, opt := range options {
		index[opt] = len(out)
		out = append(out, OptionBreakdown{Value: opt, Voters: []Voter{}})
	}
	for _, vote := range votes {
		for _, sel := range vote.Selections {
			i, ok := index[sel]
			if !ok {
				i = len(out)
				index[sel] = i
				out = append(out, OptionBreakdown{Value: sel, Voters: []Voter{}})
			}
			out[i].Voters = append(out[i].Voters, Voter{UserID: vote.UserID, UserName: vote.UserName})
		}
	}
	for i := range out {
		out[i].VoteCount = len(out[i].Voters)
	}
	return out
}
