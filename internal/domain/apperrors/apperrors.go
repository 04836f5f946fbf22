// internal/domain/apperrors/apperrors.go

// Package apperrors defines the sentinel errors the engines report. Handlers
// match with errors.Is and surface the message verbatim; dynamic details are
// wrapped around a sentinel with fmt.Errorf("...: %w", ...).
package apperrors

import "errors"

// Authentication / lookup failures.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrActivityNotFound    = errors.New("activity not found")
	ErrPollNotFound        = errors.New("poll not found")
	ErrVotingEventNotFound = errors.New("voting event not found")
)

// Create/edit validation failures.
var (
	ErrTitleRequired         = errors.New("title is required")
	ErrPublishAtRequired     = errors.New("publish time is required")
	ErrInvalidImageID        = errors.New("image id is not valid")
	ErrDescriptionRequired   = errors.New("description is required")
	ErrQuestionRequired      = errors.New("poll question is required")
	ErrQuestionTooLong       = errors.New("poll question must be 100 characters or fewer")
	ErrTooFewOptions         = errors.New("polls require at least two options")
	ErrAutoDeleteTooEarly    = errors.New("auto delete time must be after publish time")
	ErrAutoArchiveTooEarly   = errors.New("auto archive time must be after publish time")
	ErrConflictingAutomation = errors.New("choose either auto delete or auto archive, not both")
	ErrPollCloseTooEarly     = errors.New("poll close time must be after the publish time")
	ErrTooManyImages         = errors.New("you can upload up to five images")
	ErrEmptyRoster           = errors.New("voting events need at least one participant")
	ErrInvalidPrice          = errors.New("vote prices must be non-negative amounts")
)

// Poll voting failures.
var (
	ErrPollClosed           = errors.New("this poll has closed")
	ErrPollArchived         = errors.New("this poll is archived and read-only")
	ErrNewOptionsNotAllowed = errors.New("adding options is not allowed for this poll")
	ErrNoSelection          = errors.New("select at least one option")
	ErrTooManySelections    = errors.New("too many options selected")
	ErrInvalidOption        = errors.New("selected option is not available")
)

// Vote-credit ledger failures.
var (
	ErrVotingArchived      = errors.New("this voting event is archived and read-only")
	ErrParticipantNotFound = errors.New("participant is not part of this voting event")
	ErrInsufficientVotes   = errors.New("not enough votes to remove")
)

// ErrRosterConflict reports that a roster write lost an optimistic-concurrency
// race and should be retried against fresh state.
var ErrRosterConflict = errors.New("voting roster changed concurrently, retry")
