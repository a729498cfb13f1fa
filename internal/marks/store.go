package marks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chatmarks/go-chatmarks/internal/applog"
	"github.com/chatmarks/go-chatmarks/internal/kv"
)

// ErrEmptyName is returned when an operation that requires a name is invoked
// without one.
var ErrEmptyName = errors.New("name must not be empty")

// ErrTopicNotFound is returned when a topic id does not resolve in its
// conversation's topic list.
var ErrTopicNotFound = errors.New("topic not found")

// Refresher is invoked after every successful mutation so the panel can
// re-render. A nil Refresher is allowed (e.g. one-shot CLI operations).
type Refresher interface {
	RequestRefresh()
}

// Store provides the conversation-scoped topic/bookmark operations.
type Store struct {
	kv        kv.Store
	refresher Refresher
}

// NewStore creates a Store over the given key-value backend.
func NewStore(backend kv.Store) *Store {
	return &Store{kv: backend}
}

// SetRefresher wires the refresh scheduler. Mutations call it on success;
// storage failures do not (the next observed change reconciles instead).
func (s *Store) SetRefresher(r Refresher) {
	s.refresher = r
}

func (s *Store) requestRefresh() {
	if s.refresher != nil {
		s.refresher.RequestRefresh()
	}
}

// readCollection unmarshals one collection key into dst, leaving dst at its
// zero value when the key has never been written. Reads never fail on
// first use.
func (s *Store) readCollection(ctx context.Context, key string, dst any) error {
	raw, err := kv.GetOne(ctx, s.kv, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) writeCollection(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.SetOne(ctx, s.kv, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Topics returns the topic list for a conversation, empty when none exist.
func (s *Store) Topics(ctx context.Context, conversationID string) ([]Topic, error) {
	all := topicsByConversation{}
	if err := s.readCollection(ctx, KeyTopics, &all); err != nil {
		return nil, err
	}
	return all[conversationID], nil
}

// Bookmarks returns the bookmark map for a conversation, empty when none
// exist.
func (s *Store) Bookmarks(ctx context.Context, conversationID string) (map[string]Bookmark, error) {
	all := bookmarksByConversation{}
	if err := s.readCollection(ctx, KeyBookmarks, &all); err != nil {
		return nil, err
	}
	if all[conversationID] == nil {
		return map[string]Bookmark{}, nil
	}
	return all[conversationID], nil
}

// CurrentTopic returns the selected topic id for a conversation, "" when
// unassigned.
func (s *Store) CurrentTopic(ctx context.Context, conversationID string) (string, error) {
	all := currentByConversation{}
	if err := s.readCollection(ctx, KeyCurrentTopic, &all); err != nil {
		return "", err
	}
	return all[conversationID], nil
}

// CustomTitle returns the user override title for a conversation, "" when
// unset.
func (s *Store) CustomTitle(ctx context.Context, conversationID string) (string, error) {
	all := titlesByConversation{}
	if err := s.readCollection(ctx, KeyCustomTitles, &all); err != nil {
		return "", err
	}
	return all[conversationID], nil
}

// SetCustomTitle stores (or, with an empty title, clears) the override title.
func (s *Store) SetCustomTitle(ctx context.Context, conversationID, title string) error {
	all := titlesByConversation{}
	if err := s.readCollection(ctx, KeyCustomTitles, &all); err != nil {
		return err
	}
	if title == "" {
		delete(all, conversationID)
	} else {
		all[conversationID] = title
	}
	if err := s.writeCollection(ctx, KeyCustomTitles, all); err != nil {
		return err
	}
	s.requestRefresh()
	return nil
}

// Counts folds over all conversations and returns the total number of topics
// and bookmarks. Serves the stats surface; never mutates.
func (s *Store) Counts(ctx context.Context) (topics, bookmarks int, err error) {
	raws, err := s.kv.Get(ctx, []string{KeyTopics, KeyBookmarks})
	if err != nil {
		return 0, 0, fmt.Errorf("read collections: %w", err)
	}

	allTopics := topicsByConversation{}
	if raw := raws[KeyTopics]; raw != nil {
		if err := json.Unmarshal(raw, &allTopics); err != nil {
			return 0, 0, fmt.Errorf("decode %s: %w", KeyTopics, err)
		}
	}
	allBookmarks := bookmarksByConversation{}
	if raw := raws[KeyBookmarks]; raw != nil {
		if err := json.Unmarshal(raw, &allBookmarks); err != nil {
			return 0, 0, fmt.Errorf("decode %s: %w", KeyBookmarks, err)
		}
	}

	for _, list := range allTopics {
		topics += len(list)
	}
	for _, m := range allBookmarks {
		bookmarks += len(m)
	}
	return topics, bookmarks, nil
}

// logStorageFailure records an absorbed storage error. Nothing propagates to
// a user-visible error state; the next refresh retries from current storage.
func logStorageFailure(op string, err error) {
	applog.Log.Warn("storage call failed", "op", op, "error", err)
}
