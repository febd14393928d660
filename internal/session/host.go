package session

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// OpenFunc builds a session. With fresh set it starts from defaults and does
// not read the save.
type OpenFunc func(ctx context.Context, fresh bool) *Session

// Host keeps the current session and swaps in a fresh one on reset. Handlers
// always go through Current so they never hold a session that was replaced.
type Host struct {
	mu      sync.Mutex
	current *Session
	open    OpenFunc
}

// NewHost opens the first session from the save. open is called again, with
// fresh set, after every reset.
func NewHost(ctx context.Context, open OpenFunc) *Host {
	return &Host{current: open(ctx, false), open: open}
}

func (h *Host) Current() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Reset purges the current game and replaces it with a fresh session. The
// new session never reads the save, so a purge that failed cannot bring the
// old game back; its error is still returned.
func (h *Host) Reset(ctx context.Context) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	err := h.current.Reset(ctx)
	h.current = h.open(ctx, true)
	return h.current, err
}

// Close saves and stops the current session.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.Close(ctx)
}

// Check reports a running session that lost its autosave timer. An ended
// session has no timers at all.
func (h *Host) Check(context.Context) error {
	v := h.Current().View()
	if !v.Ended && !slices.Contains(v.Timers, keyAutosave) {
		return errors.New("autosave timer is not armed")
	}
	return nil
}
