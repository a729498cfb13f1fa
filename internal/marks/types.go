// Package marks implements the persistent topic and bookmark collections,
// scoped per conversation, on top of the weak kv.Store contract. Every
// operation is a read-modify-write: at least one Get followed by one Set on
// the same key space, with no locking across calls. Two logically concurrent
// operations on the same conversation interleave freely and the later Set
// wins at collection granularity.
package marks

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Storage keys. One kv document per collection, each a map keyed by
// conversation id.
const (
	KeyTopics       = "topicsByConversation"
	KeyBookmarks    = "messageBookmarksByConversation"
	KeyCurrentTopic = "currentTopicByConversation"
	KeyCustomTitles = "customChatTitles"
)

// Topic is a user-defined label scoped to a conversation.
type Topic struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Bookmark annotates a single message, optionally grouped under a topic.
// An empty TopicID means unassigned; a TopicID that no longer resolves is
// treated as unassigned everywhere, never as corruption.
type Bookmark struct {
	Name    string `json:"name"`
	TopicID string `json:"topicId,omitempty"`
}

// Collection shapes as stored.
type (
	topicsByConversation    map[string][]Topic
	bookmarksByConversation map[string]map[string]Bookmark
	currentByConversation   map[string]string
	titlesByConversation    map[string]string
)

// NewTopicID generates a client-side topic id: millisecond timestamp plus a
// random suffix. Unique within a conversation's topic list; uniqueness across
// conversations is not needed and not enforced.
func NewTopicID() string {
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}
