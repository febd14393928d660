package engagement

import (
	"errors"
	"fmt"
)

var (
	ErrPrerequisite    = errors.New("prerequisite not unlocked")
	ErrAlreadyUnlocked = errors.New("already unlocked")
	ErrBotLocked       = errors.New("bot not unlocked")
)

// InteractionUnlock describes a successful interaction purchase.
type InteractionUnlock struct {
	Kind Kind
	Cost float64
	// AutoContentStarted is set when this purchase switched autonomous
	// posting on. The caller arms the posting timer exactly then.
	AutoContentStarted bool
}

// PurchaseInteractionUnlock buys access to interaction k. The chain
// Repost → Bookmark → Sponsor is enforced here as well as in the offers, so
// no sequence of calls can unlock a kind ahead of its prerequisite.
func (s *State) PurchaseInteractionUnlock(k Kind) (InteractionUnlock, error) {
	cost, ok := s.UnlockCosts[k]
	if !ok {
		return InteractionUnlock{}, fmt.Errorf("%w: %s is not purchasable", ErrUnknownKind, k)
	}
	if s.Unlocked[k] {
		return InteractionUnlock{}, fmt.Errorf("%s: %w", k, ErrAlreadyUnlocked)
	}
	if pre, ok := k.Prerequisite(); ok && !s.IsUnlocked(pre) {
		return InteractionUnlock{}, fmt.Errorf("%s requires %s: %w", k, pre, ErrPrerequisite)
	}
	if _, err := s.Spend(cost); err != nil {
		return InteractionUnlock{}, err
	}
	s.Unlocked[k] = true

	res := InteractionUnlock{Kind: k, Cost: cost}
	if k == Sponsor {
		res.AutoContentStarted = s.EnableAutoContent()
	}
	return res, nil
}

// EnableAutoContent switches autonomous posting on. It reports whether this
// call changed anything; later calls are no-ops.
func (s *State) EnableAutoContent() bool {
	if s.AutoContent {
		return false
	}
	s.AutoContent = true
	return true
}

// PurchaseBotUnlock buys the bot automating k and activates it with its
// progress cleared. A bot is offered once its parent interaction is unlocked.
func (s *State) PurchaseBotUnlock(k Kind) error {
	b, err := s.Bot(k)
	if err != nil {
		return err
	}
	if b.Unlocked {
		return fmt.Errorf("%s: %w", k.BotName(), ErrAlreadyUnlocked)
	}
	if !s.IsUnlocked(k) {
		return fmt.Errorf("%s requires %s: %w", k.BotName(), k, ErrPrerequisite)
	}
	if _, err := s.Spend(b.Cost); err != nil {
		return err
	}
	b.Unlocked = true
	b.Active = true
	b.Progress = 0
	return nil
}

// ToggleBot pauses or resumes the bot for k and returns its new active flag.
// Resuming clears progress. The bot's timer is not touched: it keeps ticking
// and a paused bot simply ignores its ticks.
func (s *State) ToggleBot(k Kind) (bool, error) {
	b, err := s.Bot(k)
	if err != nil {
		return false, err
	}
	if !b.Unlocked {
		return false, fmt.Errorf("%s: %w", k.BotName(), ErrBotLocked)
	}
	b.Active = !b.Active
	if b.Active {
		b.Progress = 0
	}
	return b.Active, nil
}
