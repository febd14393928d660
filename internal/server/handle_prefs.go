package server

import (
	"net/http"

	"github.com/yptox/Twitter-2/internal/persist"
)

type ThemeRequest struct {
	Theme string `json:"theme"`
}

type ThemeResponse struct {
	Theme string `json:"theme"`
}

type WelcomeResponse struct {
	Dismissed bool `json:"dismissed"`
}

func handleGetTheme(prefs *persist.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ThemeResponse{Theme: prefs.Theme(r.Context())})
	}
}

func handlePutTheme(prefs *persist.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ThemeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := prefs.SetTheme(r.Context(), req.Theme); err != nil {
			writeError(w, errorStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ThemeResponse{Theme: req.Theme})
	}
}

func handleGetWelcome(prefs *persist.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, WelcomeResponse{Dismissed: prefs.WelcomeDismissed(r.Context())})
	}
}

func handleDismissWelcome(prefs *persist.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := prefs.DismissWelcome(r.Context()); err != nil {
			writeError(w, errorStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, WelcomeResponse{Dismissed: true})
	}
}
