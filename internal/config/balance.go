package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yptox/Twitter-2/internal/engagement"
	"github.com/yptox/Twitter-2/internal/feed"
)

// KindBalance tunes one interaction and its bot.
type KindBalance struct {
	Rate       float64       `yaml:"rate"`
	UnlockCost float64       `yaml:"unlock_cost,omitempty"`
	BotCost    float64       `yaml:"bot_cost"`
	BotPeriod  time.Duration `yaml:"bot_period"`
}

// Balance is the YAML form of the game economy plus the feed settings.
type Balance struct {
	Like     KindBalance `yaml:"like"`
	Repost   KindBalance `yaml:"repost"`
	Bookmark KindBalance `yaml:"bookmark"`
	Sponsor  KindBalance `yaml:"sponsor"`

	AutoPostInterval time.Duration `yaml:"auto_post_interval"`
	FeedCapacity     int           `yaml:"feed_capacity"`
	ImageCount       int           `yaml:"image_count"`
	ImageChance      float64       `yaml:"image_chance"`
	ProfilePic       string        `yaml:"profile_pic"`
	Bio              string        `yaml:"bio"`
}

// DefaultBalance returns the shipped economy.
func DefaultBalance() Balance {
	e := engagement.DefaultBalance()
	b := Balance{
		AutoPostInterval: e.AutoPostInterval,
		FeedCapacity:     feed.DefaultCapacity,
		ImageCount:       feed.DefaultImageCount,
		ImageChance:      feed.DefaultImageChance,
		ProfilePic:       e.ProfilePic,
		Bio:              e.Bio,
	}
	for _, k := range engagement.Kinds {
		*b.kind(k) = KindBalance{
			Rate:       e.Rates[k],
			UnlockCost: e.UnlockCosts[k],
			BotCost:    e.Bots[k].Cost,
			BotPeriod:  e.Bots[k].Period,
		}
	}
	return b
}

// LoadBalance reads a YAML balance file over the defaults. Keys missing from
// the file keep their default value. An empty path returns the defaults.
func LoadBalance(path string) (Balance, error) {
	b := DefaultBalance()
	if path == "" {
		return b, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("reading balance file: %w", err)
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("parsing balance file %s: %w", path, err)
	}
	if err := b.validate(); err != nil {
		return b, fmt.Errorf("balance file %s: %w", path, err)
	}
	return b, nil
}

func (b *Balance) kind(k engagement.Kind) *KindBalance {
	switch k {
	case engagement.Repost:
		return &b.Repost
	case engagement.Bookmark:
		return &b.Bookmark
	case engagement.Sponsor:
		return &b.Sponsor
	default:
		return &b.Like
	}
}

func (b *Balance) validate() error {
	for _, k := range engagement.Kinds {
		kb := b.kind(k)
		if kb.Rate < 0 || kb.UnlockCost < 0 || kb.BotCost < 0 {
			return fmt.Errorf("%s: negative rate or cost", k)
		}
		if kb.BotPeriod <= 0 {
			return fmt.Errorf("%s: bot_period must be positive", k)
		}
	}
	if b.AutoPostInterval <= 0 {
		return fmt.Errorf("auto_post_interval must be positive")
	}
	if b.FeedCapacity <= 0 {
		return fmt.Errorf("feed_capacity must be positive")
	}
	if b.ImageChance < 0 || b.ImageChance > 1 {
		return fmt.Errorf("image_chance must be within [0, 1]")
	}
	return nil
}

// Engagement converts the balance into the economy a fresh game starts from.
// Like is always available, so it never carries an unlock cost.
func (b Balance) Engagement() engagement.Balance {
	e := engagement.Balance{
		Rates:            make(map[engagement.Kind]float64, len(engagement.Kinds)),
		UnlockCosts:      make(map[engagement.Kind]float64, len(engagement.Kinds)-1),
		Bots:             make(map[engagement.Kind]engagement.BotSpec, len(engagement.Kinds)),
		AutoPostInterval: b.AutoPostInterval,
		ProfilePic:       b.ProfilePic,
		Bio:              b.Bio,
	}
	for _, k := range engagement.Kinds {
		kb := b.kind(k)
		e.Rates[k] = kb.Rate
		if k != engagement.Like {
			e.UnlockCosts[k] = kb.UnlockCost
		}
		e.Bots[k] = engagement.BotSpec{Cost: kb.BotCost, Period: kb.BotPeriod}
	}
	return e
}

// SourceOptions is the image pool of the post source.
func (b Balance) SourceOptions(seed uint64) feed.SourceOptions {
	return feed.SourceOptions{ImageCount: b.ImageCount, ImageChance: b.ImageChance, Seed: seed}
}
