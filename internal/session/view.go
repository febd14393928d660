package session

import (
	"time"

	"github.com/yptox/Twitter-2/internal/engagement"
	"github.com/yptox/Twitter-2/internal/feed"
	"github.com/yptox/Twitter-2/internal/persist"
)

// View is a consistent copy of everything a page needs to render the game.
// It shares nothing with the live session.
type View struct {
	State         *engagement.State
	Posts         []feed.Post
	Notifications []Notification
	Offers        []engagement.Offer
	Origin        persist.Origin
	Timers        []string
	BlockCost     float64
	Ended         bool
	Blocked       bool
	Elapsed       time.Duration
}

// View snapshots the session. Elapsed is the live play time until the
// session is blocked, then the time at which it was blocked.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := s.elapsed
	if !s.blocked {
		elapsed = s.state.Elapsed(s.clock.Now())
	}
	notes := make([]Notification, len(s.notes))
	copy(notes, s.notes)

	return View{
		State:         s.state.Clone(),
		Posts:         s.feed.Posts(),
		Notifications: notes,
		Offers:        s.state.Offers(s.opts.BlockCost),
		Origin:        s.origin,
		Timers:        s.timers.keys(),
		BlockCost:     s.opts.BlockCost,
		Ended:         s.ended,
		Blocked:       s.blocked,
		Elapsed:       elapsed,
	}
}

// Credit adds amount to the balance outside of normal play, for scripted
// simulations and tests.
func (s *Session) Credit(amount float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return 0, ErrEnded
	}
	bal, err := s.state.Credit(amount)
	if err != nil {
		return 0, err
	}
	s.publish(Event{Type: EventBalance})
	return bal, nil
}
