// internal/app/features/errors/errors.go

// Package errors is the JSON error surface for the API. Handlers hand it a
// sentinel (or wrapped sentinel) from apperrors and it picks the status code
// and writes the {"error": "..."} body the frontend expects.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/WaffleZilla55/BesPick/internal/domain/apperrors"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

// Write sends a JSON error with the given status.
func Write(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

// WriteErr maps err to an HTTP status via StatusFor and writes it. Unmapped
// errors become an opaque 500; the real cause goes to the log, not the wire.
func WriteErr(w http.ResponseWriter, log *zap.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		Write(w, status, "internal error")
		return
	}
	Write(w, status, err.Error())
}

// StatusFor maps the domain sentinels onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrActivityNotFound),
		errors.Is(err, apperrors.ErrPollNotFound),
		errors.Is(err, apperrors.ErrVotingEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrRosterConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrPollClosed),
		errors.Is(err, apperrors.ErrPollArchived),
		errors.Is(err, apperrors.ErrVotingArchived),
		errors.Is(err, apperrors.ErrNewOptionsNotAllowed),
		errors.Is(err, apperrors.ErrInsufficientVotes):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrTitleRequired),
		errors.Is(err, apperrors.ErrPublishAtRequired),
		errors.Is(err, apperrors.ErrInvalidImageID),
		errors.Is(err, apperrors.ErrDescriptionRequired),
		errors.Is(err, apperrors.ErrQuestionRequired),
		errors.Is(err, apperrors.ErrQuestionTooLong),
		errors.Is(err, apperrors.ErrTooFewOptions),
		errors.Is(err, apperrors.ErrAutoDeleteTooEarly),
		errors.Is(err, apperrors.ErrAutoArchiveTooEarly),
		errors.Is(err, apperrors.ErrConflictingAutomation),
		errors.Is(err, apperrors.ErrPollCloseTooEarly),
		errors.Is(err, apperrors.ErrTooManyImages),
		errors.Is(err, apperrors.ErrEmptyRoster),
		errors.Is(err, apperrors.ErrInvalidPrice),
		errors.Is(err, apperrors.ErrNoSelection),
		errors.Is(err, apperrors.ErrTooManySelections),
		errors.Is(err, apperrors.ErrInvalidOption),
		errors.Is(err, apperrors.ErrParticipantNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RenderUnauthorized writes the "sign in required" error. The loginURL is
// included so clients can send the user there.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, loginURL string) {
	if loginURL == "" {
		loginURL = "/login"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(struct {
		Error    string `json:"error"`
		LoginURL string `json:"login_url"`
	}{Error: "sign in required", LoginURL: loginURL})
}

// RenderForbidden writes the "access denied" error with a message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "you don't have permission to do that"
	}
	Write(w, http.StatusForbidden, msg)
}
