package detect

import (
	"sync"
	"time"

	"github.com/chatmarks/go-chatmarks/internal/applog"
)

// ChangeEvent notifies a subscriber that the active conversation changed.
// ConversationID is empty when the host navigated away from any conversation.
type ChangeEvent struct {
	ConversationID string    `json:"conversation_id"`
	At             time.Time `json:"at"`
}

// ChangeFeed provides in-memory fan-out of conversation-change events to
// subscribers (websocket clients, the panel TUI, the settings surface).
type ChangeFeed struct {
	mu   sync.RWMutex
	subs []*feedSubscriber
}

type feedSubscriber struct {
	ch     chan ChangeEvent
	closed bool
}

// NewChangeFeed creates an empty feed.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{}
}

// Subscribe returns a channel receiving change events. Call the returned
// function to unsubscribe and close the channel.
func (f *ChangeFeed) Subscribe() (<-chan ChangeEvent, func()) {
	ch := make(chan ChangeEvent, 16)
	sub := &feedSubscriber{ch: ch}

	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()

	unsub := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.subs {
			if s == sub {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				if !s.closed {
					s.closed = true
					close(s.ch)
				}
				break
			}
		}
	}

	return ch, unsub
}

// Publish sends the event to all subscribers. Slow consumers whose buffers
// are full have events dropped; the panel rebuilds from storage anyway.
func (f *ChangeFeed) Publish(event ChangeEvent) {
	f.mu.RLock()
	subs := make([]*feedSubscriber, len(f.subs))
	copy(subs, f.subs)
	f.mu.RUnlock()

	for _, sub := range subs {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			applog.Log.Warn("dropping change event for slow subscriber",
				"conversation_id", event.ConversationID)
		}
	}
}
