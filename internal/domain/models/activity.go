// internal/domain/models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types for an Activity. Fixed vocabulary; an activity keeps exactly one
// sub-state struct (Poll or Voting) matching its type.
const (
	EventAnnouncement = "announcement"
	EventPoll         = "poll"
	EventVoting       = "voting"
)

// Activity statuses.
const (
	StatusScheduled = "scheduled"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Leaderboard modes for voting events.
const (
	LeaderboardAll            = "all"
	LeaderboardGroup          = "group"
	LeaderboardGroupPortfolio = "group_portfolio"
)

// Activity is the unifying record for an announcement, poll, or voting event.
//
// The original data kept poll/voting fields as optional siblings on one wide
// record. Here they live in detail structs keyed by EventType: Poll is non-nil
// iff EventType == EventPoll, Voting is non-nil iff EventType == EventVoting.
type Activity struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	EventType   string             `bson:"event_type" json:"event_type"`
	Status      string             `bson:"status" json:"status"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	PublishAt time.Time  `bson:"publish_at" json:"publish_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`

	CreatedBy string `bson:"created_by,omitempty" json:"created_by,omitempty"`
	UpdatedBy string `bson:"updated_by,omitempty" json:"updated_by,omitempty"`

	// At most one of these is set, and each must be after PublishAt.
	AutoDeleteAt  *time.Time `bson:"auto_delete_at,omitempty" json:"auto_delete_at,omitempty"`
	AutoArchiveAt *time.Time `bson:"auto_archive_at,omitempty" json:"auto_archive_at,omitempty"`

	Poll   *PollDetails   `bson:"poll,omitempty" json:"poll,omitempty"`
	Voting *VotingDetails `bson:"voting,omitempty" json:"voting,omitempty"`

	// Deduplicated set of at most five GridFS attachment ids.
	ImageIDs []primitive.ObjectID `bson:"image_ids,omitempty" json:"image_ids,omitempty"`

	// RosterRev guards roster snapshot writes: each ReplaceRoster bumps it and
	// filters on the value it read, so concurrent purchases cannot clobber
	// each other.
	RosterRev int64 `bson:"roster_rev,omitempty" json:"-"`
}

// PollDetails carries poll sub-state.
type PollDetails struct {
	Question               string     `bson:"question" json:"question"`
	Options                []string   `bson:"options" json:"options"`
	Anonymous              bool       `bson:"anonymous" json:"anonymous"`
	AllowAdditionalOptions bool       `bson:"allow_additional_options" json:"allow_additional_options"`
	MaxSelections          int        `bson:"max_selections" json:"max_selections"`
	ClosesAt               *time.Time `bson:"closes_at,omitempty" json:"closes_at,omitempty"`
}

// VotingDetails carries paid-vote sub-state. Participants is a point-in-time
// roster snapshot taken at create/edit time; it does not follow later roster
// changes.
type VotingDetails struct {
	Participants      []VotingParticipant `bson:"participants" json:"participants"`
	AddVotePrice      float64             `bson:"add_vote_price" json:"add_vote_price"`
	RemoveVotePrice   float64             `bson:"remove_vote_price" json:"remove_vote_price"`
	AllowedGroups     []string            `bson:"allowed_groups,omitempty" json:"allowed_groups,omitempty"`
	AllowedPortfolios []string            `bson:"allowed_portfolios,omitempty" json:"allowed_portfolios,omitempty"`
	AllowUngrouped    bool                `bson:"allow_ungrouped" json:"allow_ungrouped"`
	LeaderboardMode   string              `bson:"leaderboard_mode" json:"leaderboard_mode"`
}

// VotingParticipant is one roster entry with its vote-credit balance.
type VotingParticipant struct {
	UserID    string `bson:"user_id" json:"user_id"`
	FirstName string `bson:"first_name" json:"first_name"`
	LastName  string `bson:"last_name" json:"last_name"`
	Group     string `bson:"group,omitempty" json:"group,omitempty"`
	Portfolio string `bson:"portfolio,omitempty" json:"portfolio,omitempty"`
	Votes     int    `bson:"votes" json:"votes"`
}

// IsPoll reports whether the activity is a poll.
func (a *Activity) IsPoll() bool { return a.EventType == EventPoll }

// IsVoting reports whether the activity is a voting event.
func (a *Activity) IsVoting() bool { return a.EventType == EventVoting }

// EffectiveStatus is the status a record displays given schedule automation,
// before anything is persisted. The active-list read path and the sweep write
// path both go through here so they cannot disagree.
func (a *Activity) EffectiveStatus(now time.Time) string {
	if a.Status == StatusScheduled && !a.PublishAt.After(now) {
		return StatusPublished
	}
	return a.Status
}

// ValidLeaderboardMode reports whether mode is one of the known values.
func ValidLeaderboardMode(mode string) bool {
	switch mode {
	case LeaderboardAll, LeaderboardGroup, LeaderboardGroupPortfolio:
		return true
	}
	return false
}
