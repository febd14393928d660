package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yptox/Twitter-2/internal/engagement"
	"github.com/yptox/Twitter-2/internal/feed"
	"github.com/yptox/Twitter-2/internal/persist"
	"github.com/yptox/Twitter-2/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// errorStatus maps a game error to its HTTP status. Rejections the game
// treats as silent no-ops are conflicts.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, engagement.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, feed.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, engagement.ErrInsufficientFunds),
		errors.Is(err, engagement.ErrPrerequisite),
		errors.Is(err, engagement.ErrAlreadyUnlocked),
		errors.Is(err, engagement.ErrBotLocked),
		errors.Is(err, feed.ErrNoControl),
		errors.Is(err, feed.ErrAlreadyDone),
		errors.Is(err, session.ErrEnded):
		return http.StatusConflict
	case errors.Is(err, persist.ErrInvalidTheme), errors.Is(err, engagement.ErrNegativeAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, persist.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
