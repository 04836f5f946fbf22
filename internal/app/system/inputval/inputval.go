// internal/app/system/inputval/inputval.go

// Package inputval normalizes and validates activity create/edit input. It is
// pure: callers pass the raw field set, the existing record (nil on create),
// and the clock value; they get back either normalized activity state or one
// of the apperrors sentinels. Nothing here touches storage.
package inputval

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/WaffleZilla55/BesPick/internal/domain/apperrors"
	"github.com/WaffleZilla55/BesPick/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxPollQuestionLen caps the trimmed poll question.
const MaxPollQuestionLen = 100

// MaxImages caps the attachment set per activity.
const MaxImages = 5

// TimePatch is a three-state optional instant: absent (leave the stored value
// alone), explicit null (clear it), or a value. In JSON it is an epoch-ms
// number or null; an omitted field decodes to the zero TimePatch.
type TimePatch struct {
	Set   bool
	Clear bool
	Value time.Time
}

// UnmarshalJSON accepts an epoch-millisecond number or null.
func (p *TimePatch) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = TimePatch{Clear: true}
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("expected epoch milliseconds or null: %w", err)
	}
	*p = TimePatch{Set: true, Value: time.UnixMilli(ms).UTC()}
	return nil
}

// resolve applies the patch over the previously stored value.
func (p TimePatch) resolve(existing *time.Time) *time.Time {
	switch {
	case p.Set:
		t := p.Value
		return &t
	case p.Clear:
		return nil
	default:
		return existing
	}
}

// ParticipantInput is one raw roster entry. Votes arrives as a JSON number
// and is floored and clamped during normalization.
type ParticipantInput struct {
	UserID    string  `json:"userId"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Group     string  `json:"group"`
	Portfolio string  `json:"portfolio"`
	Votes     float64 `json:"votes"`
}

// ActivityInput is the raw caller-supplied field set for create and edit.
// Pointer and nil-slice fields distinguish "omitted" from "provided"; on edit,
// omitted fields fall back to the stored record.
type ActivityInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventType   string    `json:"eventType"`
	PublishAt   TimePatch `json:"publishAt"`

	AutoDeleteAt  TimePatch `json:"autoDeleteAt"`
	AutoArchiveAt TimePatch `json:"autoArchiveAt"`

	PollQuestion               *string   `json:"pollQuestion"`
	PollOptions                []string  `json:"pollOptions"`
	PollAnonymous              *bool     `json:"pollAnonymous"`
	PollAllowAdditionalOptions *bool     `json:"pollAllowAdditionalOptions"`
	PollMaxSelections          *float64  `json:"pollMaxSelections"`
	PollClosesAt               TimePatch `json:"pollClosesAt"`

	VotingParticipants      []ParticipantInput `json:"votingParticipants"`
	VotingAddVotePrice      *float64           `json:"votingAddVotePrice"`
	VotingRemoveVotePrice   *float64           `json:"votingRemoveVotePrice"`
	VotingAllowedGroups     []string           `json:"votingAllowedGroups"`
	VotingAllowedPortfolios []string           `json:"votingAllowedPortfolios"`
	VotingAllowUngrouped    *bool              `json:"votingAllowUngrouped"`
	VotingLeaderboardMode   string             `json:"votingLeaderboardMode"`

	ImageIDs []string `json:"imageIds"`
}

// NormalizeActivity validates in against the rules for its event type and
// returns the normalized state the store should persist. existing is nil on
// create; on edit, omitted fields fall back to it. Status is recomputed from
// the resolved publish time against now. ID, CreatedAt, and provenance fields
// are left for the store to stamp.
func NormalizeActivity(in ActivityInput, existing *models.Activity, now time.Time) (models.Activity, error) {
	var out models.Activity

	title := strings.TrimSpace(in.Title)
	if title == "" && existing != nil {
		title = existing.Title
	}
	if title == "" {
		return out, apperrors.ErrTitleRequired
	}

	eventType := in.EventType
	if eventType != models.EventPoll && eventType != models.EventVoting {
		if eventType != "" && eventType != models.EventAnnouncement {
			// Unknown labels fall through to the stored type (edit) or the
			// announcement default (create), mirroring the permissive intake.
			eventType = ""
		}
		if eventType == "" {
			if existing != nil {
				eventType = existing.EventType
			} else {
				eventType = models.EventAnnouncement
			}
		}
	}

	description := strings.TrimSpace(in.Description)
	if description == "" && existing != nil {
		description = existing.Description
	}
	if description == "" && eventType != models.EventPoll {
		return out, apperrors.ErrDescriptionRequired
	}

	var publishAt time.Time
	switch {
	case in.PublishAt.Set:
		publishAt = in.PublishAt.Value
	case existing != nil:
		publishAt = existing.PublishAt
	default:
		return out, apperrors.ErrPublishAtRequired
	}

	var exDelete, exArchive *time.Time
	if existing != nil {
		exDelete = existing.AutoDeleteAt
		exArchive = existing.AutoArchiveAt
	}
	autoDeleteAt := in.AutoDeleteAt.resolve(exDelete)
	autoArchiveAt := in.AutoArchiveAt.resolve(exArchive)
	if autoDeleteAt != nil && !autoDeleteAt.After(publishAt) {
		return out, apperrors.ErrAutoDeleteTooEarly
	}
	if autoArchiveAt != nil && !autoArchiveAt.After(publishAt) {
		return out, apperrors.ErrAutoArchiveTooEarly
	}
	if autoDeleteAt != nil && autoArchiveAt != nil {
		return out, apperrors.ErrConflictingAutomation
	}

	out = models.Activity{
		Title:         title,
		Description:   description,
		EventType:     eventType,
		PublishAt:     publishAt,
		Status:        initialStatus(publishAt, now),
		AutoDeleteAt:  autoDeleteAt,
		AutoArchiveAt: autoArchiveAt,
	}

	if eventType == models.EventPoll {
		poll, err := normalizePoll(in, existing, publishAt)
		if err != nil {
			return models.Activity{}, err
		}
		out.Poll = poll
	}

	if eventType == models.EventVoting {
		voting, err := normalizeVoting(in, existing)
		if err != nil {
			return models.Activity{}, err
		}
		out.Voting = voting
	}

	imageIDs, err := normalizeImageIDs(in.ImageIDs, existing)
	if err != nil {
		return models.Activity{}, err
	}
	out.ImageIDs = imageIDs

	return out, nil
}

// initialStatus is the create/edit status rule: anything due now or in the
// past is published, the rest is scheduled.
func initialStatus(publishAt, now time.Time) string {
	if publishAt.After(now) {
		return models.StatusScheduled
	}
	return models.StatusPublished
}

func normalizePoll(in ActivityInput, existing *models.Activity, publishAt time.Time) (*models.PollDetails, error) {
	var prior *models.PollDetails
	if existing != nil {
		prior = existing.Poll
	}

	question := ""
	if in.PollQuestion != nil {
		question = strings.TrimSpace(*in.PollQuestion)
	} else if prior != nil {
		question = strings.TrimSpace(prior.Question)
	}
	if question == "" {
		return nil, apperrors.ErrQuestionRequired
	}
	if len([]rune(question)) > MaxPollQuestionLen {
		return nil, apperrors.ErrQuestionTooLong
	}

	rawOptions := in.PollOptions
	if rawOptions == nil && prior != nil {
		rawOptions = prior.Options
	}
	options := CleanOptions(rawOptions)
	if len(options) < 2 {
		return nil, apperrors.ErrTooFewOptions
	}

	maxSelections := 1
	if in.PollMaxSelections != nil {
		maxSelections = int(math.Floor(*in.PollMaxSelections))
	} else if prior != nil {
		maxSelections = prior.MaxSelections
	}
	if maxSelections < 1 {
		maxSelections = 1
	}
	if maxSelections > len(options) {
		maxSelections = len(options)
	}

	anonymous := false
	if in.PollAnonymous != nil {
		anonymous = *in.PollAnonymous
	} else if prior != nil {
		anonymous = prior.Anonymous
	}
	allowAdditional := false
	if in.PollAllowAdditionalOptions != nil {
		allowAdditional = *in.PollAllowAdditionalOptions
	} else if prior != nil {
		allowAdditional = prior.AllowAdditionalOptions
	}

	var exCloses *time.Time
	if prior != nil {
		exCloses = prior.ClosesAt
	}
	closesAt := in.PollClosesAt.resolve(exCloses)
	if closesAt != nil && !closesAt.After(publishAt) {
		return nil, apperrors.ErrPollCloseTooEarly
	}

	return &models.PollDetails{
		Question:               question,
		Options:                options,
		Anonymous:              anonymous,
		AllowAdditionalOptions: allowAdditional,
		MaxSelections:          maxSelections,
		ClosesAt:               closesAt,
	}, nil
}

// CleanOptions trims each option, drops empties, and removes exact
// duplicates while preserving first-seen order.
func CleanOptions(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, opt := range raw {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		if _, dup := seen[opt]; dup {
			continue
		}
		seen[opt] = struct{}{}
		out = append(out, opt)
	}
	return out
}

func normalizeVoting(in ActivityInput, existing *models.Activity) (*models.VotingDetails, error) {
	var prior *models.VotingDetails
	if existing != nil {
		prior = existing.Voting
	}

	var participants []models.VotingParticipant
	if in.VotingParticipants != nil {
		participants = NormalizeParticipants(in.VotingParticipants)
	} else if prior != nil {
		participants = prior.Participants
	}
	if len(participants) == 0 {
		return nil, apperrors.ErrEmptyRoster
	}

	addPrice, err := resolvePrice(in.VotingAddVotePrice, prior, func(v *models.VotingDetails) float64 { return v.AddVotePrice })
	if err != nil {
		return nil, err
	}
	removePrice, err := resolvePrice(in.VotingRemoveVotePrice, prior, func(v *models.VotingDetails) float64 { return v.RemoveVotePrice })
	if err != nil {
		return nil, err
	}

	allowedGroups := in.VotingAllowedGroups
	allowedPortfolios := in.VotingAllowedPortfolios
	if prior != nil {
		if allowedGroups == nil {
			allowedGroups = prior.AllowedGroups
		}
		if allowedPortfolios == nil {
			allowedPortfolios = prior.AllowedPortfolios
		}
	}

	allowUngrouped := false
	if in.VotingAllowUngrouped != nil {
		allowUngrouped = *in.VotingAllowUngrouped
	} else if prior != nil {
		allowUngrouped = prior.AllowUngrouped
	}

	// The one place invalid input is repaired instead of rejected: an unknown
	// leaderboard mode silently falls back to the stored value, then to "all".
	mode := strings.TrimSpace(in.VotingLeaderboardMode)
	if !models.ValidLeaderboardMode(mode) {
		mode = ""
		if prior != nil && models.ValidLeaderboardMode(prior.LeaderboardMode) {
			mode = prior.LeaderboardMode
		}
		if mode == "" {
			mode = models.LeaderboardAll
		}
	}

	return &models.VotingDetails{
		Participants:      participants,
		AddVotePrice:      addPrice,
		RemoveVotePrice:   removePrice,
		AllowedGroups:     CleanOptions(allowedGroups),
		AllowedPortfolios: CleanOptions(allowedPortfolios),
		AllowUngrouped:    allowUngrouped,
		LeaderboardMode:   mode,
	}, nil
}

// NormalizeParticipants dedupes by user id (first occurrence wins), trims
// names and unit labels, and floors vote balances to non-negative integers.
func NormalizeParticipants(raw []ParticipantInput) []models.VotingParticipant {
	seen := make(map[string]struct{}, len(raw))
	out := make([]models.VotingParticipant, 0, len(raw))
	for _, p := range raw {
		userID := strings.TrimSpace(p.UserID)
		if userID == "" {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		// Clamp before converting: float-to-int conversion of an
		// out-of-range value is not defined.
		votes := 0
		switch {
		case math.IsNaN(p.Votes) || math.IsInf(p.Votes, 0) || p.Votes <= 0:
		case p.Votes >= math.MaxInt32:
			votes = math.MaxInt32
		default:
			votes = int(math.Floor(p.Votes))
		}
		out = append(out, models.VotingParticipant{
			UserID:    userID,
			FirstName: strings.TrimSpace(p.FirstName),
			LastName:  strings.TrimSpace(p.LastName),
			Group:     strings.TrimSpace(p.Group),
			Portfolio: strings.TrimSpace(p.Portfolio),
			Votes:     votes,
		})
	}
	return out
}

// RoundPrice validates a currency amount and rounds it to cents.
func RoundPrice(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, apperrors.ErrInvalidPrice
	}
	return math.Round(v*100) / 100, nil
}

func resolvePrice(in *float64, prior *models.VotingDetails, pick func(*models.VotingDetails) float64) (float64, error) {
	if in != nil {
		return RoundPrice(*in)
	}
	if prior != nil {
		return pick(prior), nil
	}
	return 0, nil
}

func normalizeImageIDs(raw []string, existing *models.Activity) ([]primitive.ObjectID, error) {
	// An empty list falls back to the stored set; attachments are replaced,
	// never cleared, matching the original intake behavior.
	if len(raw) == 0 {
		if existing != nil {
			return existing.ImageIDs, nil
		}
		return nil, nil
	}
	if len(raw) > MaxImages {
		return nil, apperrors.ErrTooManyImages
	}

	seen := make(map[primitive.ObjectID]struct{}, len(raw))
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, hex := range raw {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidImageID, hex)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
