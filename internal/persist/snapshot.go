package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/yptox/Twitter-2/internal/engagement"
)

var ErrCorrupt = errors.New("save snapshot is corrupt")

// botDoc is one bot in the save document. Older saves also carry an
// intervalId; it is ignored on load and never written.
type botDoc struct {
	Unlocked   bool    `json:"unlocked"`
	Active     bool    `json:"active"`
	Cost       float64 `json:"cost"`
	IntervalMs int64   `json:"intervalMs"`
	Progress   float64 `json:"progress"`
}

// document is the save format. Field names match the saves written by the
// browser version of the game so those load unchanged.
type document struct {
	EngagementPoints float64 `json:"engagementPoints"`
	TotalTweets      int     `json:"totalTweets"`
	GameStartTime    int64   `json:"gameStartTime"`

	ProfilePic string `json:"nathanProfilePicSrc"`
	Bio        string `json:"nathanBioText"`

	EPPerLike     float64 `json:"epPerLike"`
	EPPerRepost   float64 `json:"epPerRepost"`
	EPPerBookmark float64 `json:"epPerBookmark"`
	EPPerSponsor  float64 `json:"epPerSponsor"`

	RepostUnlocked     bool    `json:"repostUnlocked"`
	UnlockRepostCost   float64 `json:"unlockRepostCost"`
	BookmarkUnlocked   bool    `json:"bookmarkUnlocked"`
	UnlockBookmarkCost float64 `json:"unlockBookmarkCost"`
	SponsorUnlocked    bool    `json:"sponsorTweetUnlocked"`
	UnlockSponsorCost  float64 `json:"unlockSponsorCost"`

	LikeBot     botDoc `json:"likeBot"`
	RepostBot   botDoc `json:"repostBot"`
	BookmarkBot botDoc `json:"bookmarkBot"`
	SponsorBot  botDoc `json:"sponsorBot"`

	AutoContent        bool  `json:"nathanIsTweetingAutomatically"`
	AutoPostIntervalMs int64 `json:"NATHAN_TWEET_INTERVAL_MS"`
}

func (d *document) rate(k engagement.Kind) *float64 {
	switch k {
	case engagement.Repost:
		return &d.EPPerRepost
	case engagement.Bookmark:
		return &d.EPPerBookmark
	case engagement.Sponsor:
		return &d.EPPerSponsor
	}
	return &d.EPPerLike
}

// unlock returns the flag and cost fields of a purchasable interaction.
func (d *document) unlock(k engagement.Kind) (*bool, *float64) {
	switch k {
	case engagement.Repost:
		return &d.RepostUnlocked, &d.UnlockRepostCost
	case engagement.Bookmark:
		return &d.BookmarkUnlocked, &d.UnlockBookmarkCost
	case engagement.Sponsor:
		return &d.SponsorUnlocked, &d.UnlockSponsorCost
	}
	return nil, nil
}

func (d *document) bot(k engagement.Kind) *botDoc {
	switch k {
	case engagement.Repost:
		return &d.RepostBot
	case engagement.Bookmark:
		return &d.BookmarkBot
	case engagement.Sponsor:
		return &d.SponsorBot
	}
	return &d.LikeBot
}

func fromState(s *engagement.State) document {
	d := document{
		EngagementPoints:   s.Currency,
		TotalTweets:        s.ContentCount,
		GameStartTime:      s.StartedAt.UnixMilli(),
		ProfilePic:         s.ProfilePic,
		Bio:                s.Bio,
		AutoContent:        s.AutoContent,
		AutoPostIntervalMs: s.AutoPostInterval.Milliseconds(),
	}
	for _, k := range engagement.Kinds {
		*d.rate(k) = s.Rates[k]
		if flag, cost := d.unlock(k); flag != nil {
			*flag = s.Unlocked[k]
			*cost = s.UnlockCosts[k]
		}
		if b, ok := s.Bots[k]; ok {
			*d.bot(k) = botDoc{
				Unlocked:   b.Unlocked,
				Active:     b.Active,
				Cost:       b.Cost,
				IntervalMs: b.Period.Milliseconds(),
				Progress:   b.Progress,
			}
		}
	}
	return d
}

func (d *document) toState(b engagement.Balance, now time.Time) *engagement.State {
	s := engagement.NewState(b, now)
	s.Currency = d.EngagementPoints
	s.ContentCount = d.TotalTweets
	if d.GameStartTime > 0 {
		s.StartedAt = time.UnixMilli(d.GameStartTime).UTC()
	}
	s.ProfilePic = d.ProfilePic
	s.Bio = d.Bio
	s.AutoContent = d.AutoContent
	s.AutoPostInterval = time.Duration(d.AutoPostIntervalMs) * time.Millisecond

	for _, k := range engagement.Kinds {
		s.Rates[k] = *d.rate(k)
		if flag, cost := d.unlock(k); flag != nil {
			s.Unlocked[k] = *flag
			s.UnlockCosts[k] = *cost
		}
		bd := d.bot(k)
		bot := s.Bots[k]
		bot.Unlocked = bd.Unlocked
		bot.Active = bd.Active && bd.Unlocked
		bot.Cost = bd.Cost
		bot.Period = time.Duration(bd.IntervalMs) * time.Millisecond
		bot.Progress = bd.Progress
		if bot.Progress < 0 || bot.Progress >= 100 || math.IsNaN(bot.Progress) {
			bot.Progress = 0
		}
	}
	return s
}

func (d *document) validate() error {
	switch {
	case d.EngagementPoints < 0:
		return fmt.Errorf("%w: negative balance %g", ErrCorrupt, d.EngagementPoints)
	case d.TotalTweets < 0:
		return fmt.Errorf("%w: negative post count %d", ErrCorrupt, d.TotalTweets)
	case d.AutoPostIntervalMs <= 0:
		return fmt.Errorf("%w: auto-post interval %dms", ErrCorrupt, d.AutoPostIntervalMs)
	}
	for _, k := range engagement.Kinds {
		if r := *d.rate(k); r < 0 {
			return fmt.Errorf("%w: negative %s rate", ErrCorrupt, k)
		}
		if _, cost := d.unlock(k); cost != nil && *cost < 0 {
			return fmt.Errorf("%w: negative %s unlock cost", ErrCorrupt, k)
		}
		bd := d.bot(k)
		if bd.Cost < 0 || bd.IntervalMs <= 0 {
			return fmt.Errorf("%w: %s has cost %g, interval %dms", ErrCorrupt, k.BotName(), bd.Cost, bd.IntervalMs)
		}
	}
	return nil
}

// Encode serialises the state. Only data is written; timers live in the
// session and never reach the document.
func Encode(s *engagement.State) ([]byte, error) {
	data, err := json.Marshal(fromState(s))
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode merges a stored snapshot onto fresh defaults built from b: fields
// the snapshot lacks keep their default, so saves from older versions load.
// A missing start time becomes now. Unparseable or invalid data yields
// ErrCorrupt.
func Decode(data []byte, b engagement.Balance, now time.Time) (*engagement.State, error) {
	d := fromState(engagement.NewState(b, now))
	d.GameStartTime = 0

	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d.toState(b, now), nil
}
