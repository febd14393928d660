package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yptox/Twitter-2/internal/handler/health"
	"github.com/yptox/Twitter-2/internal/storage"
)

func ok(context.Context) error { return nil }

func failing(msg string) health.CheckerFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]health.Checker
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name: "all healthy",
			checks: map[string]health.Checker{
				"storage": storage.NewMemoryStore(),
				"session": health.CheckerFunc(ok),
			},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"storage": "ok", "session": "ok"},
		},
		{
			name: "storage down",
			checks: map[string]health.Checker{
				"storage": failing("locked"),
				"session": health.CheckerFunc(ok),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"storage": "error", "session": "ok"},
		},
		{
			name: "session ended",
			checks: map[string]health.Checker{
				"storage": storage.NewMemoryStore(),
				"session": failing("blocked"),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"storage": "ok", "session": "error"},
		},
		{
			name:       "no checks",
			checks:     map[string]health.Checker{},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), tt.checks)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body struct {
				Status string
				Checks map[string]struct{ Status string }
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}

			wantOverall := "ok"
			if tt.wantStatus != http.StatusOK {
				wantOverall = "error"
			}
			if body.Status != wantOverall {
				t.Errorf("overall status = %q, want %q", body.Status, wantOverall)
			}
			if len(body.Checks) != len(tt.wantBody) {
				t.Errorf("got %d checks, want %d", len(body.Checks), len(tt.wantBody))
			}
			for name, want := range tt.wantBody {
				if got := body.Checks[name].Status; got != want {
					t.Errorf("%s status = %q, want %q", name, got, want)
				}
			}
		})
	}
}
