// Package persist saves and restores the game state and the player's
// preferences through a storage.Store. Every failure degrades to starting
// fresh or to keeping state in memory; nothing here ends a session.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yptox/Twitter-2/internal/engagement"
	"github.com/yptox/Twitter-2/internal/storage"
)

var (
	ErrUnavailable  = errors.New("persistent storage unavailable")
	ErrInvalidTheme = errors.New("theme must be \"dark\" or \"light\"")
)

// Keys names the three independent persisted entries.
type Keys struct {
	Save    string
	Theme   string
	Welcome string
}

func DefaultKeys() Keys {
	return Keys{
		Save:    "nathansTwitter2Save_v1.5",
		Theme:   "theme",
		Welcome: "nathansTwitterWelcome_v1",
	}
}

// Origin says where a loaded state came from.
type Origin int

const (
	Fresh Origin = iota
	Restored
	RecoveredCorrupt
	RecoveredUnavailable
)

func (o Origin) String() string {
	switch o {
	case Restored:
		return "restored"
	case RecoveredCorrupt:
		return "recovered_corrupt"
	case RecoveredUnavailable:
		return "recovered_unavailable"
	}
	return "fresh"
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Manager struct {
	store   storage.Store
	keys    Keys
	balance engagement.Balance
	logger  *slog.Logger
}

func NewManager(store storage.Store, keys Keys, balance engagement.Balance, logger *slog.Logger) *Manager {
	return &Manager{store: store, keys: keys, balance: balance, logger: logger}
}

func (m *Manager) Balance() engagement.Balance { return m.balance }

// Save writes the snapshot. A failed write is logged and returned wrapped in
// ErrUnavailable; callers carry on with the in-memory state.
func (m *Manager) Save(ctx context.Context, s *engagement.State) error {
	data, err := Encode(s)
	if err != nil {
		m.logger.Error("save failed", "key", m.keys.Save, "error", err)
		return err
	}
	if err := m.store.Set(ctx, m.keys.Save, string(data)); err != nil {
		m.logger.Error("save failed", "key", m.keys.Save, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Load restores the saved state, or builds fresh defaults started at now when
// the snapshot is absent, unreadable or corrupt. It never fails. Timers are
// not part of the result; the caller re-arms them.
func (m *Manager) Load(ctx context.Context, now time.Time) (*engagement.State, Origin) {
	raw, err := m.store.Get(ctx, m.keys.Save)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return m.Defaults(now), Fresh
	case err != nil:
		m.logger.Error("load failed, starting fresh", "key", m.keys.Save, "error", err)
		return m.Defaults(now), RecoveredUnavailable
	}

	s, err := Decode([]byte(raw), m.balance, now)
	if err != nil {
		m.logger.Warn("load failed, initializing new game state", "key", m.keys.Save, "error", err)
		return m.Defaults(now), RecoveredCorrupt
	}
	return s, Restored
}

// Defaults builds the default state started at now.
func (m *Manager) Defaults(now time.Time) *engagement.State {
	return engagement.NewState(m.balance, now)
}

// Purge removes the save and the theme preference. The welcome flag stays.
func (m *Manager) Purge(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.keys.Save, m.keys.Theme); err != nil {
		m.logger.Error("purge failed", "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Theme returns the stored theme, light when unset or unreadable.
func (m *Manager) Theme(ctx context.Context) string {
	v, err := m.store.Get(ctx, m.keys.Theme)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Error("reading theme failed", "error", err)
		}
		return ThemeLight
	}
	if v != ThemeDark {
		return ThemeLight
	}
	return v
}

func (m *Manager) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return ErrInvalidTheme
	}
	if err := m.store.Set(ctx, m.keys.Theme, theme); err != nil {
		m.logger.Error("writing theme failed", "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// WelcomeDismissed reports whether the first-run message was closed.
func (m *Manager) WelcomeDismissed(ctx context.Context) bool {
	v, err := m.store.Get(ctx, m.keys.Welcome)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		m.logger.Error("reading welcome flag failed", "error", err)
	}
	return v == "true"
}

func (m *Manager) DismissWelcome(ctx context.Context) error {
	if err := m.store.Set(ctx, m.keys.Welcome, "true"); err != nil {
		m.logger.Error("writing welcome flag failed", "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
