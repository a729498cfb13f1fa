// Package host provides read-only access to the observed chat application's
// on-disk state. The host application is external and uncontrolled: its files
// are consumed as found, never written, and may change or vanish at any time.
package host

import "time"

// Author identifies who produced a message.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Message is a single transcript line as the host application wrote it.
// Unknown fields are ignored; missing fields stay zero.
type Message struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ConversationMeta describes one conversation found under the host root.
type ConversationMeta struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	ModifiedAt time.Time `json:"modified_at"`
}
