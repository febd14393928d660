// Package engagement holds the game-state engine: the EP economy, the unlock
// graph and the per-tick bot progress rule. It does no I/O and owns no timers;
// the session package drives it.
package engagement

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is an interaction a player or a bot can perform on a post.
type Kind int

const (
	Like Kind = iota
	Repost
	Bookmark
	Sponsor
)

// Kinds lists every interaction kind in unlock-chain order.
var Kinds = [...]Kind{Like, Repost, Bookmark, Sponsor}

var ErrUnknownKind = errors.New("unknown interaction kind")

var kindNames = [...]string{"like", "repost", "bookmark", "sponsor"}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Title is the capitalised name used in player-facing text ("Repost").
func (k Kind) Title() string {
	s := k.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// BotName is the name of the bot automating k ("LikeBot").
func (k Kind) BotName() string { return k.Title() + "Bot" }

func (k Kind) Valid() bool { return k >= Like && k <= Sponsor }

// Prerequisite returns the interaction that must be unlocked before k can be.
// Like has none.
func (k Kind) Prerequisite() (Kind, bool) {
	if k <= Like || !k.Valid() {
		return 0, false
	}
	return k - 1, true
}

// ParseKind accepts the lower-case name, the title-case name or the bot name.
func ParseKind(s string) (Kind, error) {
	name := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "bot")
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
