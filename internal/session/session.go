// Package session owns the lifetime of one game: it restores state, arms the
// bot, autosave and auto-post timers, applies player actions and performs
// the terminal block and reset transitions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yptox/Twitter-2/internal/engagement"
	"github.com/yptox/Twitter-2/internal/feed"
	"github.com/yptox/Twitter-2/internal/persist"
)

var ErrEnded = errors.New("session has ended")

const (
	keyAutosave = "autosave"
	keyAutoPost = "autopost"

	maxNotifications = 20
	saveTimeout      = 5 * time.Second
)

func botKey(k engagement.Kind) string { return "bot:" + k.String() }

// Options are the fixed timing and cost parameters of a session.
type Options struct {
	TickInterval     time.Duration
	AutosaveInterval time.Duration
	BlockCost        float64
	FeedCapacity     int
	// Fresh starts from default state without reading the save.
	Fresh bool
}

func DefaultOptions() Options {
	return Options{
		TickInterval:     50 * time.Millisecond,
		AutosaveInterval: 15 * time.Second,
		BlockCost:        10000,
		FeedCapacity:     feed.DefaultCapacity,
	}
}

// Deps are the collaborators a session is built from.
type Deps struct {
	Persist   *persist.Manager
	Source    *feed.Source
	Scheduler Scheduler
	Clock     Clock
	Events    *Broker
	Logger    *slog.Logger
}

// Notification is one line of the activity list.
type Notification struct {
	Message string    `json:"message"`
	Level   string    `json:"level"`
	At      time.Time `json:"at"`
}

// Session is one game from start (or restore) until block or reset. All
// state is behind mu; every timer callback and every action takes it for its
// whole run, so they never interleave.
type Session struct {
	mu      sync.Mutex
	opts    Options
	state   *engagement.State
	feed    *feed.Feed
	persist *persist.Manager
	sched   Scheduler
	clock   Clock
	events  *Broker
	logger  *slog.Logger
	timers  *registry
	origin  persist.Origin

	notes   []Notification
	ended   bool
	blocked bool
	elapsed time.Duration
}

// Open restores the saved game, or starts a fresh one when the save is
// missing or unreadable or opts.Fresh is set. It then arms one timer per
// unlocked bot, the auto-post timer if posting is on, and the autosave timer.
func Open(ctx context.Context, opts Options, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	if deps.Scheduler == nil {
		deps.Scheduler = TickerScheduler{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	var (
		state  *engagement.State
		origin persist.Origin
	)
	if opts.Fresh {
		state, origin = deps.Persist.Defaults(deps.Clock.Now()), persist.Fresh
	} else {
		state, origin = deps.Persist.Load(ctx, deps.Clock.Now())
	}
	s := &Session{
		opts:    opts,
		state:   state,
		feed:    feed.New(deps.Source, opts.FeedCapacity),
		persist: deps.Persist,
		sched:   deps.Scheduler,
		clock:   deps.Clock,
		events:  deps.Events,
		logger:  deps.Logger,
		timers:  newRegistry(),
		origin:  origin,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range engagement.Kinds {
		if s.state.Bots[k].Unlocked {
			s.armBot(k)
		}
	}
	if s.state.AutoContent {
		s.armAutoPost()
	}
	s.timers.ensure(keyAutosave, func() Timer {
		return s.sched.Every(s.opts.AutosaveInterval, s.autosave)
	})
	if s.feed.Len() == 0 {
		s.publishPost("", "")
	}

	s.logger.Info("session started",
		"origin", origin.String(),
		"balance", s.state.Currency,
		"timers", s.timers.keys(),
	)
	return s
}

func (s *Session) armBot(k engagement.Kind) {
	s.timers.ensure(botKey(k), func() Timer {
		return s.sched.Every(s.opts.TickInterval, func() { s.tickBot(k) })
	})
}

func (s *Session) armAutoPost() {
	s.timers.ensure(keyAutoPost, func() Timer {
		return s.sched.Every(s.state.AutoPostInterval, s.autoPost)
	})
}

func (s *Session) tickBot(k engagement.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	bot := s.state.Bots[k]
	if !bot.Active {
		return
	}

	res := s.state.TickBot(k, s.opts.TickInterval, s.feed)
	s.publish(Event{Type: EventBotProgress, Kind: k.String(), Progress: res.Progress, Active: true})
	if !res.Fired {
		return
	}
	s.publish(Event{Type: EventBotFired, Kind: k.String(), Performed: res.Performed})
	if !res.Performed {
		return
	}
	s.publish(Event{Type: EventBalance})
	if k == engagement.Like {
		s.publishPost("Your Like prompted Nathan to tweet!", "system")
	}
}

func (s *Session) autoPost() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || !s.state.AutoContent {
		return
	}
	s.publishPost("Nathan tweeted something on his own.", "system")
}

func (s *Session) autosave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	s.persist.Save(ctx, s.state)
}

// publishPost puts a new post on the timeline with a control for every
// unlocked interaction and counts it.
func (s *Session) publishPost(note, level string) {
	if note != "" {
		s.notify(note, level)
	}
	p := s.feed.Publish(s.state.UnlockedKinds(), s.clock.Now())
	s.state.RecordContent()
	s.publish(Event{Type: EventPost, PostID: p.ID})
}

func (s *Session) notify(msg, level string) {
	n := Notification{Message: msg, Level: level, At: s.clock.Now()}
	s.notes = append([]Notification{n}, s.notes...)
	if len(s.notes) > maxNotifications {
		s.notes = s.notes[:maxNotifications]
	}
	s.publish(Event{Type: EventNotification, Message: msg, Level: level})
}

func (s *Session) publish(e Event) {
	e.Balance = s.state.Currency
	s.events.Publish(e)
}

// Interact performs kind on post id by hand and returns the EP gained. A
// Like makes Nathan post again.
func (s *Session) Interact(id int64, k engagement.Kind) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return 0, ErrEnded
	}
	if !k.Valid() {
		return 0, engagement.ErrUnknownKind
	}
	if err := s.feed.Mark(id, k); err != nil {
		return 0, err
	}
	gained, err := s.state.Perform(k)
	if err != nil {
		return 0, err
	}
	s.publish(Event{Type: EventBalance})
	if k == engagement.Like {
		s.publishPost("Your Like prompted Nathan to tweet!", "system")
	}
	return gained, nil
}

// PurchaseInteractionUnlock buys interaction k. Buying Sponsor switches on
// autonomous posting and arms its timer once.
func (s *Session) PurchaseInteractionUnlock(k engagement.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrEnded
	}
	res, err := s.state.PurchaseInteractionUnlock(k)
	if err != nil {
		s.logger.Debug("interaction unlock rejected", "kind", k.String(), "error", err)
		return err
	}
	s.notify(k.Title()+"s Unlocked!", "unlock")
	s.publish(Event{Type: EventUnlock, Kind: k.String()})
	if res.AutoContentStarted {
		s.armAutoPost()
	}
	return nil
}

// PurchaseBotUnlock buys the bot for k and starts its timer.
func (s *Session) PurchaseBotUnlock(k engagement.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrEnded
	}
	if err := s.state.PurchaseBotUnlock(k); err != nil {
		s.logger.Debug("bot unlock rejected", "kind", k.String(), "error", err)
		return err
	}
	s.armBot(k)
	s.notify(k.BotName()+" Unlocked and Activated!", "unlock")
	s.publish(Event{Type: EventUnlock, Kind: k.BotName(), Active: true})
	return nil
}

// ToggleBot pauses or resumes the bot for k. Its timer keeps running.
func (s *Session) ToggleBot(k engagement.Kind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false, ErrEnded
	}
	active, err := s.state.ToggleBot(k)
	if err != nil {
		s.logger.Debug("bot toggle rejected", "kind", k.String(), "error", err)
		return false, err
	}
	if active {
		s.notify(k.BotName()+" Resumed.", "system")
	} else {
		s.notify(k.BotName()+" Paused.", "system")
	}
	s.publish(Event{Type: EventBotProgress, Kind: k.String(), Active: active})
	return active, nil
}

// Block is the terminal action. Below the block cost it changes nothing.
// Otherwise it saves, cancels every live timer and returns the play time;
// the session accepts no further changes.
func (s *Session) Block(ctx context.Context) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return 0, ErrEnded
	}
	if !s.state.CanAfford(s.opts.BlockCost) {
		return 0, fmt.Errorf("block costs %g: %w", s.opts.BlockCost, engagement.ErrInsufficientFunds)
	}

	s.persist.Save(ctx, s.state)
	cancelled := s.timers.cancelAll()
	s.elapsed = s.state.Elapsed(s.clock.Now())
	s.ended = true
	s.blocked = true

	s.logger.Info("content blocked", "elapsed", FormatElapsed(s.elapsed), "timers_cancelled", cancelled)
	s.publish(Event{Type: EventTerminal, ElapsedMs: s.elapsed.Milliseconds(), Message: FormatElapsed(s.elapsed)})
	return s.elapsed, nil
}

// Reset cancels every timer, removes the save and the theme preference, and
// ends the session. The host then starts a fresh one.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timers.cancelAll()
	s.ended = true
	err := s.persist.Purge(ctx)
	s.publish(Event{Type: EventReset})
	return err
}

// Save writes the snapshot now. Saving after the session ended is a no-op.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil
	}
	return s.persist.Save(ctx, s.state)
}

// Close is the process-exit path: a best-effort save, then every timer is
// cancelled.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if !s.ended {
		err = s.persist.Save(ctx, s.state)
	}
	s.timers.cancelAll()
	s.ended = true
	return err
}

// FormatElapsed renders a play time as HH:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
