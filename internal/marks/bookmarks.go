package marks

import (
	"context"
	"strings"
)

// SetBookmark creates or overwrites the bookmark for a message. An empty
// name deletes the bookmark entirely. The topicID is stored as given; it is
// the reader's job to treat an id that no longer resolves as unassigned.
func (s *Store) SetBookmark(ctx context.Context, conversationID, messageID, name, topicID string) error {
	name = strings.TrimSpace(name)
	all := bookmarksByConversation{}
	if err := s.readCollection(ctx, KeyBookmarks, &all); err != nil {
		logStorageFailure("set bookmark", err)
		return err
	}

	convBookmarks := all[conversationID]
	if name == "" {
		if convBookmarks == nil {
			return nil // nothing to delete
		}
		delete(convBookmarks, messageID)
		if len(convBookmarks) == 0 {
			delete(all, conversationID)
		}
	} else {
		if convBookmarks == nil {
			convBookmarks = map[string]Bookmark{}
			all[conversationID] = convBookmarks
		}
		convBookmarks[messageID] = Bookmark{Name: name, TopicID: topicID}
	}

	if err := s.writeCollection(ctx, KeyBookmarks, all); err != nil {
		logStorageFailure("set bookmark", err)
		return err
	}
	s.requestRefresh()
	return nil
}
