package session

import (
	"encoding/json"
	"sync"
)

// EventType names a state change the view layer can subscribe to.
type EventType string

const (
	EventBalance      EventType = "balance_changed"
	EventUnlock       EventType = "unlock_changed"
	EventBotProgress  EventType = "bot_progress"
	EventBotFired     EventType = "bot_fired"
	EventPost         EventType = "post_published"
	EventNotification EventType = "notification"
	EventTerminal     EventType = "terminal"
	EventReset        EventType = "reset"
)

// Event is the payload published to subscribers.
type Event struct {
	Type      EventType `json:"type"`
	Kind      string    `json:"kind,omitempty"`
	Balance   float64   `json:"balance"`
	Progress  float64   `json:"progress,omitempty"`
	Active    bool      `json:"active,omitempty"`
	Performed bool      `json:"performed,omitempty"`
	PostID    int64     `json:"postId,omitempty"`
	Message   string    `json:"message,omitempty"`
	Level     string    `json:"level,omitempty"`
	ElapsedMs int64     `json:"elapsedMs,omitempty"`
}

// Broker is an in-process pub/sub for session events. It outlives any single
// session so subscribers keep their stream across a reset.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the subscribers.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Publish sends an event to all subscribers. A nil broker drops it.
func (b *Broker) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.subs) == 0 {
		return
	}
	data, _ := json.Marshal(event)
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
}

// Subscribers is the number of open subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
