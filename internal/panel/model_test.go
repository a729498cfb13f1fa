package panel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chatmarks/go-chatmarks/internal/host"
	"github.com/chatmarks/go-chatmarks/internal/kv"
	"github.com/chatmarks/go-chatmarks/internal/marks"
)

type nopRefresher struct{ calls int }

func (n *nopRefresher) RequestRefresh() { n.calls++ }

type memTranscripts map[string][]host.Message

func (m memTranscripts) Transcript(id string) ([]host.Message, error) {
	return m[id], nil
}

func newTestModel(t *testing.T) (Model, *marks.Store, *nopRefresher) {
	t.Helper()
	store := marks.NewStore(kv.NewFileStore(filepath.Join(t.TempDir(), "marks.json")))
	reader := memTranscripts{
		"conv-1": {
			{ID: "m1", Author: host.AuthorUser, Content: "hello"},
			{ID: "m2", Author: host.AuthorAssistant, Content: "world"},
		},
	}
	refresher := &nopRefresher{}
	return NewModel(store, reader, refresher, "right", "enabled"), store, refresher
}

func applyView(m Model, v View) Model {
	next, _ := m.Update(ViewMsg(v))
	return next.(Model)
}

func TestViewMsgReplacesViewAndClampsCursor(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.msgIdx = 5

	m = applyView(m, View{
		ConversationID: "conv-1",
		Messages:       []MessageRow{{ID: "m1"}, {ID: "m2"}},
	})
	if m.view.ConversationID != "conv-1" {
		t.Fatalf("view not applied: %+v", m.view)
	}
	if m.msgIdx != 1 {
		t.Errorf("cursor = %d, want clamped to 1", m.msgIdx)
	}
}

func TestAddTopicEditCommit(t *testing.T) {
	m, store, refresher := newTestModel(t)
	store.SetRefresher(refresher)
	m = applyView(m, View{ConversationID: "conv-1"})

	m = m.startEdit(editAddTopic, "New topic name", "")
	m.input.SetValue("Design")
	m.commitEdit()

	topics, err := store.Topics(context.Background(), "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 1 || topics[0].Name != "Design" {
		t.Fatalf("topics = %+v", topics)
	}
	if refresher.calls == 0 {
		t.Error("mutation did not request a refresh")
	}
}

func TestAddTopicEmptyNameSetsStatus(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = applyView(m, View{ConversationID: "conv-1"})

	m = m.startEdit(editAddTopic, "New topic name", "")
	m.input.SetValue("   ")
	m.commitEdit()

	if m.status == "" {
		t.Error("empty topic name should surface an error status")
	}
}

func TestBookmarkEditAssignsCurrentTopicWhenAutoTopicEnabled(t *testing.T) {
	m, store, _ := newTestModel(t)
	ctx := context.Background()

	topic, err := store.AddTopic(ctx, "conv-1", "Design")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetCurrentTopic(ctx, "conv-1", topic.ID); err != nil {
		t.Fatal(err)
	}

	m = applyView(m, View{
		ConversationID: "conv-1",
		Groups:         []TopicGroup{{TopicID: topic.ID, Name: "Design", Current: true}},
		Messages:       []MessageRow{{ID: "m1"}},
	})
	m = m.startEdit(editBookmark, "Bookmark name", "")
	m.input.SetValue("note")
	m.commitEdit()

	bookmarks, err := store.Bookmarks(ctx, "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if bookmarks["m1"].TopicID != topic.ID {
		t.Errorf("bookmark = %+v, want topic %s", bookmarks["m1"], topic.ID)
	}
}

func TestMutationWithoutConversationSetsStatus(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = m.startEdit(editAddTopic, "New topic name", "")
	m.input.SetValue("Design")
	m.commitEdit()
	if m.status != "no conversation open" {
		t.Errorf("status = %q", m.status)
	}
}

func TestUnassignedGroupHasNoTopicOperations(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = applyView(m, View{
		ConversationID: "conv-1",
		Groups: []TopicGroup{
			{Name: UnassignedGroup, Bookmarks: []BookmarkItem{{MessageID: "m1", Name: "x"}}},
		},
	})
	m.focus = paneTopics
	if m.selectedTopic() != nil {
		t.Error("unassigned bucket must not expose topic operations")
	}
}
