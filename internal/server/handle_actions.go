package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yptox/Twitter-2/internal/engagement"
	"github.com/yptox/Twitter-2/internal/session"
)

// ActionResponse answers every game action: what happened plus the view
// after it. A rejected action carries the unchanged view and the reason.
type ActionResponse struct {
	Error  string        `json:"error,omitempty"`
	Gained float64       `json:"gained,omitempty"`
	Active *bool         `json:"active,omitempty"`
	State  StateResponse `json:"state"`
}

type BlockResponse struct {
	Terminal TerminalResponse `json:"terminal"`
	State    StateResponse    `json:"state"`
}

func kindParam(r *http.Request) (engagement.Kind, error) {
	return engagement.ParseKind(chi.URLParam(r, "kind"))
}

// respond writes the outcome of an action on sess. Expected rejections are
// logged at debug only.
func respond(w http.ResponseWriter, r *http.Request, logger *slog.Logger, sess *session.Session, resp ActionResponse, err error) {
	status := http.StatusOK
	if err != nil {
		status = errorStatus(err)
		resp.Error = err.Error()
		if status >= http.StatusInternalServerError {
			logger.Error("game action failed", "path", r.URL.Path, "error", err)
		} else {
			logger.Debug("game action rejected", "path", r.URL.Path, "error", err)
		}
	}
	resp.State = newStateResponse(printerFor(r), sess.View())
	writeJSON(w, status, resp)
}

func handleInteract(logger *slog.Logger, host *session.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid post id")
			return
		}
		kind, err := kindParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		sess := host.Current()
		gained, err := sess.Interact(id, kind)
		respond(w, r, logger, sess, ActionResponse{Gained: gained}, err)
	}
}

func handleUnlockInteraction(logger *slog.Logger, host *session.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		sess := host.Current()
		err = sess.PurchaseInteractionUnlock(kind)
		respond(w, r, logger, sess, ActionResponse{}, err)
	}
}

func handleUnlockBot(logger *slog.Logger, host *session.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		sess := host.Current()
		err = sess.PurchaseBotUnlock(kind)
		respond(w, r, logger, sess, ActionResponse{}, err)
	}
}

func handleToggleBot(logger *slog.Logger, host *session.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := kindParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		sess := host.Current()
		active, err := sess.ToggleBot(kind)
		resp := ActionResponse{}
		if err == nil {
			resp.Active = &active
		}
		respond(w, r, logger, sess, resp, err)
	}
}

func handleBlock(logger *slog.Logger, host *session.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := host.Current()
		elapsed, err := sess.Block(r.Context())
		if err != nil {
			respond(w, r, logger, sess, ActionResponse{}, err)
			return
		}
		writeJSON(w, http.StatusOK, BlockResponse{
			Terminal: TerminalResponse{
				ElapsedMs: elapsed.Milliseconds(),
				Elapsed:   session.FormatElapsed(elapsed),
			},
			State: newStateResponse(printerFor(r), sess.View()),
		})
	}
}

// handleReset purges the game and answers with the view of the fresh one.
// A failed purge is logged; the new session is served regardless.
func handleReset(logger *slog.Logger, host *session.Host) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fresh, err := host.Reset(r.Context())
		if err != nil {
			logger.Error("reset could not purge saved state", "error", err)
		}
		writeJSON(w, http.StatusOK, ActionResponse{State: newStateResponse(printerFor(r), fresh.View())})
	}
}
