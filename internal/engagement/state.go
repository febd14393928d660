package engagement

import "time"

// BotSpec is the fixed purchase cost and cycle length of one bot.
type BotSpec struct {
	Cost   float64
	Period time.Duration
}

// Balance is the tunable economy a fresh game starts from.
type Balance struct {
	Rates            map[Kind]float64
	UnlockCosts      map[Kind]float64
	Bots             map[Kind]BotSpec
	AutoPostInterval time.Duration
	ProfilePic       string
	Bio              string
}

// DefaultBalance returns the economy of the shipped game.
func DefaultBalance() Balance {
	return Balance{
		Rates: map[Kind]float64{
			Like:     1,
			Repost:   3,
			Bookmark: 5,
			Sponsor:  10,
		},
		UnlockCosts: map[Kind]float64{
			Repost:   50,
			Bookmark: 250,
			Sponsor:  1000,
		},
		Bots: map[Kind]BotSpec{
			Like:     {Cost: 25, Period: 3 * time.Second},
			Repost:   {Cost: 150, Period: 5 * time.Second},
			Bookmark: {Cost: 750, Period: 8 * time.Second},
			Sponsor:  {Cost: 3000, Period: 12 * time.Second},
		},
		AutoPostInterval: 7 * time.Second,
		ProfilePic:       "images/NathanImage7.png",
		Bio:              "love to post",
	}
}

// Bot is the serialisable state of one automation agent. Live timers are
// never part of it.
type Bot struct {
	Unlocked bool
	Active   bool
	Cost     float64
	Period   time.Duration
	Progress float64
}

// State is the single game-state aggregate. All mutation goes through its
// methods; the session owns the only instance.
type State struct {
	Currency         float64
	ContentCount     int
	StartedAt        time.Time
	Unlocked         map[Kind]bool
	Rates            map[Kind]float64
	UnlockCosts      map[Kind]float64
	Bots             map[Kind]*Bot
	AutoContent      bool
	AutoPostInterval time.Duration
	ProfilePic       string
	Bio              string
}

// NewState builds fresh-defaults state started at now. The start time is kept
// at millisecond precision in UTC so it survives a snapshot unchanged.
func NewState(b Balance, now time.Time) *State {
	s := &State{
		StartedAt:        now.UTC().Truncate(time.Millisecond),
		Unlocked:         make(map[Kind]bool, len(Kinds)-1),
		Rates:            make(map[Kind]float64, len(Kinds)),
		UnlockCosts:      make(map[Kind]float64, len(Kinds)-1),
		Bots:             make(map[Kind]*Bot, len(Kinds)),
		AutoPostInterval: b.AutoPostInterval,
		ProfilePic:       b.ProfilePic,
		Bio:              b.Bio,
	}
	for _, k := range Kinds {
		s.Rates[k] = b.Rates[k]
		spec := b.Bots[k]
		s.Bots[k] = &Bot{Cost: spec.Cost, Period: spec.Period}
		if k == Like {
			continue
		}
		s.Unlocked[k] = false
		s.UnlockCosts[k] = b.UnlockCosts[k]
	}
	return s
}

// IsUnlocked reports whether players may perform k. Like always is.
func (s *State) IsUnlocked(k Kind) bool {
	if k == Like {
		return true
	}
	return s.Unlocked[k]
}

// UnlockedKinds lists the interactions currently available, in chain order.
func (s *State) UnlockedKinds() []Kind {
	kinds := make([]Kind, 0, len(Kinds))
	for _, k := range Kinds {
		if s.IsUnlocked(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Bot returns the bot automating k.
func (s *State) Bot(k Kind) (*Bot, error) {
	b, ok := s.Bots[k]
	if !ok {
		return nil, ErrUnknownKind
	}
	return b, nil
}

// Elapsed is the wall-clock play time at now.
func (s *State) Elapsed(now time.Time) time.Duration {
	d := now.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Clone returns a deep copy, used to hand state to readers outside the session
// lock.
func (s *State) Clone() *State {
	c := *s
	c.Unlocked = make(map[Kind]bool, len(s.Unlocked))
	for k, v := range s.Unlocked {
		c.Unlocked[k] = v
	}
	c.Rates = make(map[Kind]float64, len(s.Rates))
	for k, v := range s.Rates {
		c.Rates[k] = v
	}
	c.UnlockCosts = make(map[Kind]float64, len(s.UnlockCosts))
	for k, v := range s.UnlockCosts {
		c.UnlockCosts[k] = v
	}
	c.Bots = make(map[Kind]*Bot, len(s.Bots))
	for k, b := range s.Bots {
		bc := *b
		c.Bots[k] = &bc
	}
	return &c
}
