// Package panel projects the stored topic and bookmark collections plus the
// host transcript into a renderable view. Build is a pure function: given
// the same input it produces the same view, so a refresh pass that observed
// no change re-renders an identical panel.
package panel

import (
	"sort"
	"time"

	"github.com/chatmarks/go-chatmarks/internal/host"
	"github.com/chatmarks/go-chatmarks/internal/marks"
)

// UnassignedGroup is the synthetic group holding bookmarks with no topic,
// including bookmarks whose topic id no longer resolves.
const UnassignedGroup = "Unassigned"

// BookmarkItem is a bookmark joined with its message, if the message still
// exists in the transcript.
type BookmarkItem struct {
	MessageID string `json:"messageId"`
	Name      string `json:"name"`
	Author    string `json:"author,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
	Missing   bool   `json:"missing,omitempty"`
}

// TopicGroup is one topic and the bookmarks assigned to it, or the
// unassigned bucket when TopicID is empty.
type TopicGroup struct {
	TopicID   string         `json:"topicId,omitempty"`
	Name      string         `json:"name"`
	Current   bool           `json:"current,omitempty"`
	Bookmarks []BookmarkItem `json:"bookmarks"`
}

// MessageRow is one transcript message with its bookmark state.
type MessageRow struct {
	ID         string `json:"id"`
	Author     string `json:"author"`
	Excerpt    string `json:"excerpt"`
	Bookmarked bool   `json:"bookmarked,omitempty"`
	Bookmark   string `json:"bookmark,omitempty"`
}

// View is the complete panel state for one conversation. An empty
// ConversationID means no conversation is open.
type View struct {
	ConversationID string       `json:"conversationId,omitempty"`
	Title          string       `json:"title,omitempty"`
	HasCustomTitle bool         `json:"hasCustomTitle,omitempty"`
	Groups         []TopicGroup `json:"groups,omitempty"`
	Messages       []MessageRow `json:"messages,omitempty"`
	TopicCount     int          `json:"topicCount"`
	BookmarkCount  int          `json:"bookmarkCount"`
	RenderedAt     time.Time    `json:"renderedAt"`
}

// BuildInput bundles everything Build needs.
type BuildInput struct {
	ConversationID string
	Title          string
	HasCustomTitle bool
	Topics         []marks.Topic
	Bookmarks      map[string]marks.Bookmark
	CurrentTopic   string
	Messages       []host.Message
}

const excerptRunes = 80

// Build projects the input into a View. Topic ordering follows the stored
// list; bookmarks within a group sort by transcript position, with
// transcript-less bookmarks last by message id. A bookmark whose topic id
// matches no stored topic lands in the unassigned bucket.
func Build(in BuildInput) View {
	v := View{
		ConversationID: in.ConversationID,
		Title:          in.Title,
		HasCustomTitle: in.HasCustomTitle,
		TopicCount:     len(in.Topics),
		BookmarkCount:  len(in.Bookmarks),
	}
	if in.ConversationID == "" {
		return v
	}

	order := make(map[string]int, len(in.Messages))
	byID := make(map[string]host.Message, len(in.Messages))
	for i, m := range in.Messages {
		order[m.ID] = i
		byID[m.ID] = m
	}

	known := make(map[string]bool, len(in.Topics))
	for _, t := range in.Topics {
		known[t.ID] = true
	}

	grouped := make(map[string][]BookmarkItem)
	for messageID, b := range in.Bookmarks {
		item := BookmarkItem{MessageID: messageID, Name: b.Name}
		if m, ok := byID[messageID]; ok {
			item.Author = string(m.Author)
			item.Excerpt = excerpt(m.Content)
		} else {
			item.Missing = true
		}
		topicID := b.TopicID
		if !known[topicID] {
			topicID = ""
		}
		grouped[topicID] = append(grouped[topicID], item)
	}
	for _, items := range grouped {
		sortBookmarks(items, order)
	}

	for _, t := range in.Topics {
		v.Groups = append(v.Groups, TopicGroup{
			TopicID:   t.ID,
			Name:      t.Name,
			Current:   t.ID == in.CurrentTopic,
			Bookmarks: grouped[t.ID],
		})
	}
	if unassigned := grouped[""]; len(unassigned) > 0 {
		v.Groups = append(v.Groups, TopicGroup{
			Name:      UnassignedGroup,
			Bookmarks: unassigned,
		})
	}

	for _, m := range in.Messages {
		row := MessageRow{
			ID:      m.ID,
			Author:  string(m.Author),
			Excerpt: excerpt(m.Content),
		}
		if b, ok := in.Bookmarks[m.ID]; ok {
			row.Bookmarked = true
			row.Bookmark = b.Name
		}
		v.Messages = append(v.Messages, row)
	}
	return v
}

// CurrentGroup returns the group marked current, or nil.
func (v View) CurrentGroup() *TopicGroup {
	for i := range v.Groups {
		if v.Groups[i].Current {
			return &v.Groups[i]
		}
	}
	return nil
}

func sortBookmarks(items []BookmarkItem, order map[string]int) {
	sort.SliceStable(items, func(i, j int) bool {
		oi, iok := order[items[i].MessageID]
		oj, jok := order[items[j].MessageID]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return items[i].MessageID < items[j].MessageID
	})
}

func excerpt(content string) string {
	runes := []rune(content)
	for i, r := range runes {
		if r == '\n' {
			runes = runes[:i]
			break
		}
	}
	if len(runes) > excerptRunes {
		return string(runes[:excerptRunes]) + "…"
	}
	return string(runes)
}
