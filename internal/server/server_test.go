package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yptox/Twitter-2/internal/engagement"
	"github.com/yptox/Twitter-2/internal/feed"
	"github.com/yptox/Twitter-2/internal/handler/health"
	"github.com/yptox/Twitter-2/internal/persist"
	"github.com/yptox/Twitter-2/internal/session"
	"github.com/yptox/Twitter-2/internal/storage"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type testApp struct {
	handler http.Handler
	host    *session.Host
	sched   *session.ManualScheduler
	events  *session.Broker
	prefs   *persist.Manager
}

func newTestApp(t *testing.T, spaDir string) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStore()
	prefs := persist.NewManager(store, persist.DefaultKeys(), engagement.DefaultBalance(), logger)
	sched := session.NewManualScheduler(epoch)
	events := session.NewBroker()
	source := feed.NewSource([]string{"hello world", "posting again"}, feed.SourceOptions{Seed: 3})

	host := session.NewHost(context.Background(), func(ctx context.Context, fresh bool) *session.Session {
		opts := session.DefaultOptions()
		opts.Fresh = fresh
		return session.Open(ctx, opts, session.Deps{
			Persist:   prefs,
			Source:    source,
			Scheduler: sched,
			Clock:     sched,
			Events:    events,
			Logger:    logger,
		})
	})
	t.Cleanup(func() { host.Close(context.Background()) })

	return &testApp{
		handler: newRouter(logger, Deps{
			Host:   host,
			Prefs:  prefs,
			Events: events,
			Checks: map[string]health.Checker{"storage": store, "session": host},
			SPADir: spaDir,
		}),
		host:   host,
		sched:  sched,
		events: events,
		prefs:  prefs,
	}
}

func (a *testApp) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) credit(t *testing.T, amount float64) {
	t.Helper()
	if _, err := a.host.Current().Credit(amount); err != nil {
		t.Fatalf("credit: %v", err)
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestStateFresh(t *testing.T) {
	app := newTestApp(t, "")

	rec := app.do(t, http.MethodGet, "/api/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	st := decode[StateResponse](t, rec)

	if st.Balance != 0 || st.BalanceDisplay != "0" {
		t.Errorf("balance = %v (%q)", st.Balance, st.BalanceDisplay)
	}
	if st.Origin != "fresh" {
		t.Errorf("origin = %q, want fresh", st.Origin)
	}
	if !st.Unlocked["like"] || st.Unlocked["repost"] {
		t.Errorf("unlocked = %v", st.Unlocked)
	}
	if len(st.Posts) != 1 || len(st.Posts[0].Controls) != 1 {
		t.Fatalf("posts = %+v", st.Posts)
	}
	if len(st.Bots) != 4 || st.Bots[0].Name != "LikeBot" || st.Bots[0].PeriodMs != 3000 {
		t.Errorf("bots = %+v", st.Bots)
	}
	if st.Profile.Bio != "love to post" {
		t.Errorf("bio = %q", st.Profile.Bio)
	}

	wantOffers := []struct{ typ, kind string }{
		{"interaction_unlock", "repost"},
		{"bot_unlock", "like"},
	}
	if len(st.Offers) != len(wantOffers) {
		t.Fatalf("offers = %+v", st.Offers)
	}
	for i, w := range wantOffers {
		if st.Offers[i].Type != w.typ || st.Offers[i].Kind != w.kind || st.Offers[i].Affordable {
			t.Errorf("offer %d = %+v", i, st.Offers[i])
		}
	}
	if st.Offers[0].Label != "Unlock Reposts (50 EP)" {
		t.Errorf("label = %q", st.Offers[0].Label)
	}
}

func TestStateFormatsNumbers(t *testing.T) {
	app := newTestApp(t, "")
	app.credit(t, 12345.9)

	tests := []struct {
		name   string
		target string
		lang   string
		want   string
	}{
		{"default", "/api/state", "", "12,345"},
		{"query", "/api/state?lang=de", "", "12.345"},
		{"header", "/api/state", "de-DE,de;q=0.9", "12.345"},
		{"query wins", "/api/state?lang=en-US", "de", "12,345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.lang != "" {
				req.Header.Set("Accept-Language", tt.lang)
			}
			rec := httptest.NewRecorder()
			app.handler.ServeHTTP(rec, req)

			st := decode[StateResponse](t, rec)
			if st.BalanceDisplay != tt.want {
				t.Errorf("balanceDisplay = %q, want %q", st.BalanceDisplay, tt.want)
			}
		})
	}
}

func TestInteract(t *testing.T) {
	app := newTestApp(t, "")
	postID := app.host.Current().View().Posts[0].ID
	target := "/api/posts/" + itoa(postID) + "/like"

	rec := app.do(t, http.MethodPost, target, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	resp := decode[ActionResponse](t, rec)
	if resp.Gained != 1 || resp.State.Balance != 1 || len(resp.State.Posts) != 2 {
		t.Errorf("resp = %+v", resp)
	}

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"already liked", target, http.StatusConflict},
		{"locked control", "/api/posts/" + itoa(postID) + "/repost", http.StatusConflict},
		{"unknown post", "/api/posts/999/like", http.StatusNotFound},
		{"bad post id", "/api/posts/abc/like", http.StatusBadRequest},
		{"bad kind", "/api/posts/" + itoa(postID) + "/retweet", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, tt.target, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if got := app.host.Current().View().State.Currency; got != 1 {
		t.Errorf("balance after rejections = %v, want 1", got)
	}
}

func TestUnlocksAndBots(t *testing.T) {
	app := newTestApp(t, "")

	rec := app.do(t, http.MethodPost, "/api/unlocks/repost", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("unaffordable unlock status = %d, want 409", rec.Code)
	}
	resp := decode[ActionResponse](t, rec)
	if resp.Error == "" || resp.State.Unlocked["repost"] {
		t.Errorf("rejected unlock = %+v", resp)
	}

	app.credit(t, 75)
	steps := []struct {
		target string
		want   int
	}{
		{"/api/unlocks/like", http.StatusBadRequest},
		{"/api/unlocks/bookmark", http.StatusConflict},
		{"/api/unlocks/repost", http.StatusOK},
		{"/api/unlocks/repost", http.StatusConflict},
		{"/api/bots/repost/toggle", http.StatusConflict},
		{"/api/bots/like/unlock", http.StatusOK},
		{"/api/bots/LikeBot/toggle", http.StatusOK},
	}
	for _, s := range steps {
		if rec := app.do(t, http.MethodPost, s.target, nil); rec.Code != s.want {
			t.Fatalf("POST %s = %d, want %d: %s", s.target, rec.Code, s.want, rec.Body)
		}
	}

	rec = app.do(t, http.MethodPost, "/api/bots/like/toggle", nil)
	resp = decode[ActionResponse](t, rec)
	if resp.Active == nil || !*resp.Active {
		t.Errorf("toggle back = %+v", resp.Active)
	}
	st := resp.State
	if st.Balance != 0 || !st.Bots[0].Unlocked || !st.Bots[0].Active {
		t.Errorf("state = %+v", st)
	}
	if st.Notifications[0].Message != "LikeBot Resumed." {
		t.Errorf("latest notification = %q", st.Notifications[0].Message)
	}
}

func TestBlock(t *testing.T) {
	app := newTestApp(t, "")
	app.credit(t, 9999)

	rec := app.do(t, http.MethodPost, "/api/block", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("block below cost = %d, want 409", rec.Code)
	}
	if app.sched.Live() != 1 {
		t.Errorf("live timers = %d, want 1", app.sched.Live())
	}

	app.credit(t, 1)
	app.sched.Advance(time.Hour + time.Minute + time.Second)
	rec = app.do(t, http.MethodPost, "/api/block", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("block = %d, want 200: %s", rec.Code, rec.Body)
	}
	resp := decode[BlockResponse](t, rec)
	if resp.Terminal.Elapsed != "01:01:01" {
		t.Errorf("elapsed = %q", resp.Terminal.Elapsed)
	}
	if !resp.State.Ended || resp.State.Terminal == nil || resp.State.BalanceDisplay != "10,000" {
		t.Errorf("state = %+v", resp.State)
	}
	if app.sched.Live() != 0 {
		t.Errorf("live timers after block = %d", app.sched.Live())
	}

	if rec := app.do(t, http.MethodPost, "/api/unlocks/repost", nil); rec.Code != http.StatusConflict {
		t.Errorf("unlock after block = %d, want 409", rec.Code)
	}
	if rec := app.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("health after block = %d, want 200", rec.Code)
	}
}

func TestReset(t *testing.T) {
	app := newTestApp(t, "")
	app.credit(t, 500)
	if rec := app.do(t, http.MethodPut, "/api/prefs/theme", ThemeRequest{Theme: "dark"}); rec.Code != http.StatusOK {
		t.Fatalf("set theme = %d", rec.Code)
	}
	app.do(t, http.MethodPost, "/api/prefs/welcome", nil)
	old := app.host.Current()

	rec := app.do(t, http.MethodPost, "/api/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset = %d", rec.Code)
	}
	resp := decode[ActionResponse](t, rec)
	if resp.State.Balance != 0 || resp.State.Origin != "fresh" {
		t.Errorf("state after reset = %+v", resp.State)
	}
	if app.host.Current() == old {
		t.Error("reset kept the old session")
	}

	theme := decode[ThemeResponse](t, app.do(t, http.MethodGet, "/api/prefs/theme", nil))
	if theme.Theme != "light" {
		t.Errorf("theme after reset = %q", theme.Theme)
	}
	welcome := decode[WelcomeResponse](t, app.do(t, http.MethodGet, "/api/prefs/welcome", nil))
	if !welcome.Dismissed {
		t.Error("reset must keep the welcome flag")
	}
}

func TestPrefsValidation(t *testing.T) {
	app := newTestApp(t, "")

	if rec := app.do(t, http.MethodPut, "/api/prefs/theme", ThemeRequest{Theme: "sepia"}); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid theme = %d, want 422", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPut, "/api/prefs/theme", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body = %d, want 400", rec.Code)
	}
	if got := app.prefs.Theme(context.Background()); got != persist.ThemeLight {
		t.Errorf("theme = %q", got)
	}
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t, "")
	rec := app.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[HealthResponse](t, rec)
	if body.Checks["storage"].Status != "ok" || body.Checks["session"].Status != "ok" {
		t.Errorf("checks = %+v", body.Checks)
	}
}

func TestOpenAPIAndDocs(t *testing.T) {
	app := newTestApp(t, "")

	rec := app.do(t, http.MethodGet, "/openapi.json", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("openapi status = %d", rec.Code)
	}
	var spec struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&spec); err != nil {
		t.Fatal(err)
	}
	for _, op := range operations {
		methods, ok := spec.Paths[op.path]
		if !ok {
			t.Errorf("missing path %s", op.path)
			continue
		}
		if _, ok := methods[strings.ToLower(op.method)]; !ok {
			t.Errorf("missing %s %s", op.method, op.path)
		}
	}

	rec = app.do(t, http.MethodGet, "/docs/", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("docs status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("docs content-type = %q", ct)
	}
}

func TestSPA(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"index.html":               "<html>twitter-2</html>",
		"images/NathanImage7.png": "png",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	app := newTestApp(t, dir)

	tests := []struct {
		path     string
		want     int
		contains string
	}{
		{"/images/NathanImage7.png", http.StatusOK, "png"},
		{"/images/NathanImage99.png", http.StatusNotFound, ""},
		{"/profile", http.StatusOK, "twitter-2"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := app.do(t, http.MethodGet, tt.path, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body = %q", rec.Body)
			}
		})
	}
}
