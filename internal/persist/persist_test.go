package persist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yptox/Twitter-2/internal/engagement"
	"github.com/yptox/Twitter-2/internal/storage"
)

var (
	started = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	later   = started.Add(3 * time.Hour)
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) {
	return "", errors.New("disk on fire")
}
func (brokenStore) Set(context.Context, string, string) error { return errors.New("disk on fire") }
func (brokenStore) Delete(context.Context, ...string) error  { return errors.New("disk on fire") }

func newManager(store storage.Store) *Manager {
	return NewManager(store, DefaultKeys(), engagement.DefaultBalance(), quietLogger())
}

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func wantErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("error = %v, want %v", err, target)
	}
}

func wantState(t *testing.T, got, want *engagement.State) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("state mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

// midGame builds a state reachable through normal play.
func midGame(t *testing.T) *engagement.State {
	t.Helper()
	s := engagement.NewState(engagement.DefaultBalance(), started)
	_, err := s.Credit(1500.5)
	mustOK(t, err)
	_, err = s.PurchaseInteractionUnlock(engagement.Repost)
	mustOK(t, err)
	_, err = s.PurchaseInteractionUnlock(engagement.Bookmark)
	mustOK(t, err)
	mustOK(t, s.PurchaseBotUnlock(engagement.Like))
	mustOK(t, s.PurchaseBotUnlock(engagement.Repost))
	_, err = s.ToggleBot(engagement.Repost)
	mustOK(t, err)
	for i := 0; i < 7; i++ {
		s.TickBot(engagement.Like, 50*time.Millisecond, nil)
	}
	s.RecordContent()
	s.RecordContent()
	return s
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newManager(storage.NewMemoryStore())
	want := midGame(t)

	mustOK(t, m.Save(ctx, want))
	got, origin := m.Load(ctx, later)

	if origin != Restored {
		t.Errorf("origin = %v, want restored", origin)
	}
	wantState(t, got, want)
}

func TestRoundTripAfterSponsor(t *testing.T) {
	s := midGame(t)
	_, err := s.Credit(5000)
	mustOK(t, err)
	_, err = s.PurchaseInteractionUnlock(engagement.Sponsor)
	mustOK(t, err)

	data, err := Encode(s)
	mustOK(t, err)
	got, err := Decode(data, engagement.DefaultBalance(), later)
	mustOK(t, err)

	wantState(t, got, s)
	if !got.AutoContent {
		t.Error("automatic posting lost in the round trip")
	}
}

func TestLoadAbsentOrCorrupt(t *testing.T) {
	tests := []struct {
		name   string
		store  storage.Store
		saved  string
		origin Origin
	}{
		{name: "absent", store: storage.NewMemoryStore(), origin: Fresh},
		{name: "not json", store: storage.NewMemoryStore(), saved: "{engagementPoints: lots", origin: RecoveredCorrupt},
		{name: "wrong type", store: storage.NewMemoryStore(), saved: `{"engagementPoints":"many"}`, origin: RecoveredCorrupt},
		{name: "array", store: storage.NewMemoryStore(), saved: `[1,2,3]`, origin: RecoveredCorrupt},
		{name: "negative balance", store: storage.NewMemoryStore(), saved: `{"engagementPoints":-5}`, origin: RecoveredCorrupt},
		{name: "zero bot interval", store: storage.NewMemoryStore(), saved: `{"likeBot":{"intervalMs":0}}`, origin: RecoveredCorrupt},
		{name: "storage down", store: brokenStore{}, origin: RecoveredUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.saved != "" {
				mustOK(t, tt.store.Set(ctx, DefaultKeys().Save, tt.saved))
			}
			m := newManager(tt.store)

			got, origin := m.Load(ctx, later)

			if origin != tt.origin {
				t.Errorf("origin = %v, want %v", origin, tt.origin)
			}
			wantState(t, got, engagement.NewState(engagement.DefaultBalance(), later))
		})
	}
}

func TestDefaultsIgnoreSave(t *testing.T) {
	ctx := context.Background()
	m := newManager(storage.NewMemoryStore())
	mustOK(t, m.Save(ctx, midGame(t)))

	wantState(t, m.Defaults(later), engagement.NewState(engagement.DefaultBalance(), later))
}

func TestLoadMergesOntoDefaults(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	// A save from an older version: no sponsor fields, a stale timer handle,
	// a partial bot and no start time.
	saved := `{
		"engagementPoints": 320,
		"totalTweets": 12,
		"repostUnlocked": true,
		"likeBot": {"unlocked": true, "active": true, "intervalId": 42, "progress": 12.5},
		"repostBot": null
	}`
	mustOK(t, store.Set(ctx, DefaultKeys().Save, saved))

	got, origin := newManager(store).Load(ctx, later)

	if origin != Restored {
		t.Fatalf("origin = %v, want restored", origin)
	}
	if got.Currency != 320 || got.ContentCount != 12 {
		t.Errorf("currency, content = %g, %d; want 320, 12", got.Currency, got.ContentCount)
	}
	if !got.StartedAt.Equal(later) {
		t.Errorf("started at = %v, want %v", got.StartedAt, later)
	}
	if !got.Unlocked[engagement.Repost] || got.Unlocked[engagement.Sponsor] {
		t.Errorf("unlocked = %v", got.Unlocked)
	}
	if c := got.UnlockCosts[engagement.Sponsor]; c != 1000 {
		t.Errorf("sponsor cost = %g, want 1000", c)
	}
	if r := got.Rates[engagement.Sponsor]; r != 10 {
		t.Errorf("sponsor rate = %g, want 10", r)
	}

	if like, want := *got.Bots[engagement.Like], (engagement.Bot{Unlocked: true, Active: true, Cost: 25, Period: 3 * time.Second, Progress: 12.5}); like != want {
		t.Errorf("like bot = %+v, want %+v", like, want)
	}
	if repost, want := *got.Bots[engagement.Repost], (engagement.Bot{Cost: 150, Period: 5 * time.Second}); repost != want {
		t.Errorf("repost bot = %+v, want %+v", repost, want)
	}
	if got.AutoPostInterval != 7*time.Second {
		t.Errorf("auto post interval = %v, want 7s", got.AutoPostInterval)
	}
	if got.Bio != "love to post" {
		t.Errorf("bio = %q", got.Bio)
	}
}

func TestDecodeNormalisesBots(t *testing.T) {
	data := []byte(`{"sponsorBot":{"active":true,"progress":250},"likeBot":{"unlocked":true,"progress":-3}}`)

	got, err := Decode(data, engagement.DefaultBalance(), later)
	mustOK(t, err)

	if b := got.Bots[engagement.Sponsor]; b.Active || b.Progress != 0 {
		t.Errorf("sponsor bot = %+v, want inactive at 0", *b)
	}
	if p := got.Bots[engagement.Like].Progress; p != 0 {
		t.Errorf("like progress = %g, want 0", p)
	}
}

func TestEncodeOmitsTimerHandles(t *testing.T) {
	data, err := Encode(midGame(t))
	mustOK(t, err)
	if strings.Contains(string(data), "intervalId") {
		t.Errorf("snapshot carries a timer handle: %s", data)
	}
	if !strings.Contains(string(data), `"gameStartTime":1748779200000`) {
		t.Errorf("snapshot start time missing: %s", data)
	}
}

func TestSaveUnavailable(t *testing.T) {
	m := newManager(brokenStore{})
	wantErr(t, m.Save(context.Background(), midGame(t)), ErrUnavailable)
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	m := newManager(store)

	if got := m.Theme(ctx); got != ThemeLight {
		t.Errorf("default theme = %q", got)
	}
	if m.WelcomeDismissed(ctx) {
		t.Error("welcome dismissed on a new store")
	}

	mustOK(t, m.SetTheme(ctx, ThemeDark))
	wantErr(t, m.SetTheme(ctx, "sepia"), ErrInvalidTheme)
	mustOK(t, m.DismissWelcome(ctx))
	mustOK(t, m.Save(ctx, midGame(t)))

	if got := m.Theme(ctx); got != ThemeDark {
		t.Errorf("theme = %q, want dark", got)
	}
	if !m.WelcomeDismissed(ctx) {
		t.Error("welcome not dismissed")
	}

	mustOK(t, m.Purge(ctx))

	if got := m.Theme(ctx); got != ThemeLight {
		t.Errorf("theme after purge = %q, want light", got)
	}
	if !m.WelcomeDismissed(ctx) {
		t.Error("purge cleared the welcome flag")
	}
	_, err := store.Get(ctx, DefaultKeys().Save)
	wantErr(t, err, storage.ErrNotFound)
}

func TestPreferencesUnavailable(t *testing.T) {
	ctx := context.Background()
	m := newManager(brokenStore{})

	if got := m.Theme(ctx); got != ThemeLight {
		t.Errorf("theme = %q, want light", got)
	}
	if m.WelcomeDismissed(ctx) {
		t.Error("welcome dismissed on a broken store")
	}
	wantErr(t, m.SetTheme(ctx, ThemeDark), ErrUnavailable)
	wantErr(t, m.DismissWelcome(ctx), ErrUnavailable)
	wantErr(t, m.Purge(ctx), ErrUnavailable)
}
