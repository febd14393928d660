package engagement

import "time"

// Targets hands out content a bot can act on. Claim consumes one pending
// target for k and reports whether there was one.
type Targets interface {
	Claim(k Kind) bool
}

// Increment is the progress, in percent, one tick adds to a bot.
func (b *Bot) Increment(tick time.Duration) float64 {
	if b.Period <= 0 {
		return 100
	}
	return float64(tick) / float64(b.Period) * 100
}

// Advance applies one tick and reports whether the bot fired. A paused bot is
// unaffected. On reaching 100% progress resets to zero; overshoot past 100 is
// dropped rather than carried into the next cycle.
func (b *Bot) Advance(tick time.Duration) bool {
	if !b.Active {
		return false
	}
	b.Progress += b.Increment(tick)
	if b.Progress >= 100 {
		b.Progress = 0
		return true
	}
	return false
}

// TickResult is what one bot tick did.
type TickResult struct {
	Kind      Kind
	Progress  float64
	Fired     bool
	Performed bool
	Credited  float64
}

// TickBot advances the bot for k by one tick. When it fires it claims a
// target; with none available the fire is skipped and nothing is credited.
// Producing a new post after a Like is left to the caller.
func (s *State) TickBot(k Kind, tick time.Duration, targets Targets) TickResult {
	res := TickResult{Kind: k}
	b, ok := s.Bots[k]
	if !ok || !b.Unlocked {
		return res
	}
	res.Fired = b.Advance(tick)
	res.Progress = b.Progress
	if !res.Fired || targets == nil || !targets.Claim(k) {
		return res
	}
	amount := s.Rates[k]
	if _, err := s.Credit(amount); err != nil {
		return res
	}
	res.Performed = true
	res.Credited = amount
	return res
}

// Perform credits one manual interaction of kind k.
func (s *State) Perform(k Kind) (float64, error) {
	if !s.IsUnlocked(k) {
		return 0, ErrPrerequisite
	}
	amount := s.Rates[k]
	if _, err := s.Credit(amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// RecordContent counts one produced post.
func (s *State) RecordContent() int {
	s.ContentCount++
	return s.ContentCount
}
