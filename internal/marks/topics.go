package marks

import (
	"context"
	"strings"
)

// AddTopic appends a topic with a freshly generated id to the conversation's
// topic list.
func (s *Store) AddTopic(ctx context.Context, conversationID, name string) (Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Topic{}, ErrEmptyName
	}

	all := topicsByConversation{}
	if err := s.readCollection(ctx, KeyTopics, &all); err != nil {
		logStorageFailure("add topic", err)
		return Topic{}, err
	}

	topic := Topic{ID: NewTopicID(), Name: name}
	all[conversationID] = append(all[conversationID], topic)

	if err := s.writeCollection(ctx, KeyTopics, all); err != nil {
		logStorageFailure("add topic", err)
		return Topic{}, err
	}
	s.requestRefresh()
	return topic, nil
}

// RenameTopic updates a topic's name in place. Bookmark associations are
// untouched: they reference topics by id, not name.
func (s *Store) RenameTopic(ctx context.Context, conversationID, topicID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}

	all := topicsByConversation{}
	if err := s.readCollection(ctx, KeyTopics, &all); err != nil {
		logStorageFailure("rename topic", err)
		return err
	}

	topics := all[conversationID]
	found := false
	for i := range topics {
		if topics[i].ID == topicID {
			topics[i].Name = newName
			found = true
			break
		}
	}
	if !found {
		return ErrTopicNotFound
	}
	all[conversationID] = topics

	if err := s.writeCollection(ctx, KeyTopics, all); err != nil {
		logStorageFailure("rename topic", err)
		return err
	}
	s.requestRefresh()
	return nil
}

// DeleteTopic removes the topic from the conversation's topic list and clears
// the topic reference on every bookmark that pointed at it.
//
// The bookmark repair is persisted BEFORE the reduced topic list. A crash
// between the two writes leaves references already stripped while the topic
// is still listed, never a bookmark pointing at a topic id the completed
// topic-list write has removed. The bookmarks-then-topics order is part of
// the contract.
func (s *Store) DeleteTopic(ctx context.Context, conversationID, topicID string) error {
	allTopics := topicsByConversation{}
	if err := s.readCollection(ctx, KeyTopics, &allTopics); err != nil {
		logStorageFailure("delete topic", err)
		return err
	}

	topics := allTopics[conversationID]
	kept := topics[:0:0]
	found := false
	for _, t := range topics {
		if t.ID == topicID {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return ErrTopicNotFound
	}

	// Repair bookmarks first.
	allBookmarks := bookmarksByConversation{}
	if err := s.readCollection(ctx, KeyBookmarks, &allBookmarks); err != nil {
		logStorageFailure("delete topic", err)
		return err
	}
	if convBookmarks := allBookmarks[conversationID]; convBookmarks != nil {
		changed := false
		for messageID, b := range convBookmarks {
			if b.TopicID == topicID {
				b.TopicID = ""
				convBookmarks[messageID] = b
				changed = true
			}
		}
		if changed {
			if err := s.writeCollection(ctx, KeyBookmarks, allBookmarks); err != nil {
				logStorageFailure("delete topic", err)
				return err
			}
		}
	}

	// Then the reduced topic list.
	if len(kept) == 0 {
		delete(allTopics, conversationID)
	} else {
		allTopics[conversationID] = kept
	}
	if err := s.writeCollection(ctx, KeyTopics, allTopics); err != nil {
		logStorageFailure("delete topic", err)
		return err
	}
	s.requestRefresh()
	return nil
}

// SetCurrentTopic stores the selected topic id for a conversation. An empty
// topicID clears the selection. Pure selection state, idempotent, no effect
// on topics or bookmarks.
func (s *Store) SetCurrentTopic(ctx context.Context, conversationID, topicID string) error {
	all := currentByConversation{}
	if err := s.readCollection(ctx, KeyCurrentTopic, &all); err != nil {
		logStorageFailure("set current topic", err)
		return err
	}

	if topicID == "" {
		delete(all, conversationID)
	} else {
		all[conversationID] = topicID
	}

	if err := s.writeCollection(ctx, KeyCurrentTopic, all); err != nil {
		logStorageFailure("set current topic", err)
		return err
	}
	s.requestRefresh()
	return nil
}
