// Package feed is the timeline collaborator of the game engine: it produces
// posts and keeps track of which interaction controls on them are still
// unused. Bots query it only through Claim.
package feed

import (
	"errors"
	"time"

	"github.com/yptox/Twitter-2/internal/engagement"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNoControl    = errors.New("post has no control for this interaction")
	ErrAlreadyDone  = errors.New("interaction already performed on this post")
)

// DefaultCapacity is how many posts stay on the timeline.
const DefaultCapacity = 40

// Post is one item on the timeline. Controls holds one entry per interaction
// that was unlocked when the post was created; the value is true once used.
type Post struct {
	ID        int64                     `json:"id"`
	Text      string                    `json:"text"`
	Image     string                    `json:"image,omitempty"`
	CreatedAt time.Time                 `json:"createdAt"`
	Controls  map[engagement.Kind]bool `json:"controls"`
}

func (p Post) clone() Post {
	c := p
	c.Controls = make(map[engagement.Kind]bool, len(p.Controls))
	for k, v := range p.Controls {
		c.Controls[k] = v
	}
	return c
}

// Feed is the timeline, newest post first. It is not safe for concurrent
// use; the session serialises access.
type Feed struct {
	source   *Source
	capacity int
	posts    []*Post
	nextID   int64
}

func New(source *Source, capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{source: source, capacity: capacity, nextID: 1}
}

// Publish adds a new post on top with a control for each of kinds and drops
// the oldest posts beyond capacity.
func (f *Feed) Publish(kinds []engagement.Kind, now time.Time) Post {
	c := f.source.Next()
	p := &Post{
		ID:        f.nextID,
		Text:      c.Text,
		Image:     c.Image,
		CreatedAt: now,
		Controls:  make(map[engagement.Kind]bool, len(kinds)),
	}
	f.nextID++
	for _, k := range kinds {
		p.Controls[k] = false
	}

	f.posts = append([]*Post{p}, f.posts...)
	if len(f.posts) > f.capacity {
		clear(f.posts[f.capacity:])
		f.posts = f.posts[:f.capacity]
	}
	return p.clone()
}

// Claim marks the control for k on the newest post that still has it unused.
// It reports false when no such post is on the timeline.
func (f *Feed) Claim(k engagement.Kind) bool {
	for _, p := range f.posts {
		if done, ok := p.Controls[k]; ok && !done {
			p.Controls[k] = true
			return true
		}
	}
	return false
}

// Mark uses the control for k on post id.
func (f *Feed) Mark(id int64, k engagement.Kind) error {
	for _, p := range f.posts {
		if p.ID != id {
			continue
		}
		done, ok := p.Controls[k]
		switch {
		case !ok:
			return ErrNoControl
		case done:
			return ErrAlreadyDone
		}
		p.Controls[k] = true
		return nil
	}
	return ErrPostNotFound
}

// Pending counts unused controls for k.
func (f *Feed) Pending(k engagement.Kind) int {
	n := 0
	for _, p := range f.posts {
		if done, ok := p.Controls[k]; ok && !done {
			n++
		}
	}
	return n
}

func (f *Feed) Len() int { return len(f.posts) }

// Posts returns a copy of the timeline, newest first.
func (f *Feed) Posts() []Post {
	out := make([]Post, len(f.posts))
	for i, p := range f.posts {
		out[i] = p.clone()
	}
	return out
}
