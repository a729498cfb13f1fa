package server

import (
	"context"
	"testing"
)

func newTestMCP(t *testing.T) *MCPServer {
	t.Helper()
	return NewMCPServer(newTestServer(t).deps)
}

func TestMCPActiveConversation(t *testing.T) {
	ms := newTestMCP(t)
	ctx := context.Background()

	_, out, err := ms.handleActiveConversation(ctx, nil, activeConversationInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.ConversationID != "conv-1" {
		t.Errorf("conversation_id = %q", out.ConversationID)
	}
	if out.Title != "plan the rollout" {
		t.Errorf("title = %q", out.Title)
	}
}

func TestMCPAddTopicAndList(t *testing.T) {
	ms := newTestMCP(t)
	ctx := context.Background()

	_, added, err := ms.handleAddTopic(ctx, nil, addTopicInput{Name: "Design"})
	if err != nil {
		t.Fatal(err)
	}
	if added.Topic.ID == "" {
		t.Fatal("topic id empty")
	}

	if _, _, err := ms.handleSetBookmark(ctx, nil, setBookmarkInput{
		MessageID: "m2", Name: "key decision", TopicID: added.Topic.ID,
	}); err != nil {
		t.Fatal(err)
	}

	_, listed, err := ms.handleListTopics(ctx, nil, listTopicsInput{})
	if err != nil {
		t.Fatal(err)
	}
	if listed.ConversationID != "conv-1" {
		t.Errorf("conversation_id = %q", listed.ConversationID)
	}
	if len(listed.Topics) != 1 || listed.Topics[0].Name != "Design" {
		t.Fatalf("topics = %+v", listed.Topics)
	}
	if len(listed.Topics[0].Bookmarks) != 1 {
		t.Errorf("bookmarks = %v", listed.Topics[0].Bookmarks)
	}
}

func TestMCPSetBookmarkEmptyNameRemoves(t *testing.T) {
	ms := newTestMCP(t)
	ctx := context.Background()

	if _, _, err := ms.handleSetBookmark(ctx, nil, setBookmarkInput{MessageID: "m1", Name: "note"}); err != nil {
		t.Fatal(err)
	}
	_, out, err := ms.handleSetBookmark(ctx, nil, setBookmarkInput{MessageID: "m1", Name: ""})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Removed {
		t.Error("removal not reported")
	}
}

func TestMCPGetStats(t *testing.T) {
	ms := newTestMCP(t)
	ctx := context.Background()

	if _, _, err := ms.handleAddTopic(ctx, nil, addTopicInput{ConversationID: "other", Name: "X"}); err != nil {
		t.Fatal(err)
	}
	_, out, err := ms.handleGetStats(ctx, nil, getStatsInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Topics != 1 || out.Bookmarks != 0 {
		t.Errorf("stats = %+v", out)
	}
}

func TestMCPToolFilters(t *testing.T) {
	ms := newTestMCP(t)
	ms.SetToolFilters(nil, []string{"add_topic"})
	if ms.isToolAllowed("add_topic") {
		t.Error("denied tool reported allowed")
	}
	if !ms.isToolAllowed("get_stats") {
		t.Error("unlisted tool should stay allowed")
	}

	ms.SetToolFilters([]string{"get_stats"}, nil)
	if ms.isToolAllowed("list_topics") {
		t.Error("allow-list should exclude list_topics")
	}
}
