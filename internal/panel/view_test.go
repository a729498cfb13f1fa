package panel

import (
	"reflect"
	"testing"

	"github.com/chatmarks/go-chatmarks/internal/host"
	"github.com/chatmarks/go-chatmarks/internal/marks"
)

func buildInput() BuildInput {
	return BuildInput{
		ConversationID: "conv-1",
		Title:          "Planning the rollout",
		Topics: []marks.Topic{
			{ID: "t1", Name: "Design"},
			{ID: "t2", Name: "Testing"},
		},
		Bookmarks: map[string]marks.Bookmark{
			"m2": {Name: "key decision", TopicID: "t1"},
			"m4": {Name: "flaky case", TopicID: "t2"},
			"m1": {Name: "intro"},
			"m9": {Name: "stale ref", TopicID: "t-gone"},
		},
		CurrentTopic: "t2",
		Messages: []host.Message{
			{ID: "m1", Author: host.AuthorUser, Content: "let's plan the rollout"},
			{ID: "m2", Author: host.AuthorAssistant, Content: "first decision:\nship behind a flag"},
			{ID: "m3", Author: host.AuthorUser, Content: "agreed"},
			{ID: "m4", Author: host.AuthorAssistant, Content: "one test is flaky"},
		},
	}
}

func TestBuildGroupsByTopic(t *testing.T) {
	v := Build(buildInput())

	if len(v.Groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(v.Groups))
	}
	if v.Groups[0].Name != "Design" || v.Groups[1].Name != "Testing" {
		t.Errorf("topic order = %q, %q", v.Groups[0].Name, v.Groups[1].Name)
	}
	if v.Groups[2].Name != UnassignedGroup {
		t.Errorf("last group = %q, want %q", v.Groups[2].Name, UnassignedGroup)
	}
	if !v.Groups[1].Current {
		t.Error("Testing should be marked current")
	}
	if v.Groups[0].Current || v.Groups[2].Current {
		t.Error("only one group may be current")
	}
	if v.TopicCount != 2 || v.BookmarkCount != 4 {
		t.Errorf("counts = %d/%d, want 2/4", v.TopicCount, v.BookmarkCount)
	}
}

func TestBuildDanglingTopicLandsUnassigned(t *testing.T) {
	v := Build(buildInput())

	unassigned := v.Groups[2]
	ids := make([]string, 0, len(unassigned.Bookmarks))
	for _, b := range unassigned.Bookmarks {
		ids = append(ids, b.MessageID)
	}
	want := []string{"m1", "m9"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("unassigned ids = %v, want %v", ids, want)
	}
	if !unassigned.Bookmarks[1].Missing {
		t.Error("m9 has no transcript message, should be flagged missing")
	}
	if unassigned.Bookmarks[0].Missing {
		t.Error("m1 exists in transcript")
	}
}

func TestBuildBookmarksSortByTranscriptPosition(t *testing.T) {
	in := buildInput()
	in.Bookmarks["m3"] = marks.Bookmark{Name: "followup", TopicID: "t1"}
	v := Build(in)

	design := v.Groups[0]
	if len(design.Bookmarks) != 2 {
		t.Fatalf("design bookmarks = %d, want 2", len(design.Bookmarks))
	}
	if design.Bookmarks[0].MessageID != "m2" || design.Bookmarks[1].MessageID != "m3" {
		t.Errorf("order = %s, %s; want m2, m3",
			design.Bookmarks[0].MessageID, design.Bookmarks[1].MessageID)
	}
}

func TestBuildMessageRowsCarryBookmarkState(t *testing.T) {
	v := Build(buildInput())

	if len(v.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(v.Messages))
	}
	m2 := v.Messages[1]
	if !m2.Bookmarked || m2.Bookmark != "key decision" {
		t.Errorf("m2 bookmark state = %v/%q", m2.Bookmarked, m2.Bookmark)
	}
	if v.Messages[2].Bookmarked {
		t.Error("m3 is not bookmarked")
	}
	if m2.Excerpt != "first decision:" {
		t.Errorf("excerpt = %q, want first line only", m2.Excerpt)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a := Build(buildInput())
	b := Build(buildInput())
	if !reflect.DeepEqual(a, b) {
		t.Error("identical input produced different views")
	}
}

func TestBuildEmptyConversation(t *testing.T) {
	v := Build(BuildInput{})
	if v.ConversationID != "" || len(v.Groups) != 0 || len(v.Messages) != 0 {
		t.Errorf("empty input produced non-empty view: %+v", v)
	}
}

func TestBuildNoUnassignedGroupWithoutOrphans(t *testing.T) {
	in := buildInput()
	in.Bookmarks = map[string]marks.Bookmark{
		"m2": {Name: "key decision", TopicID: "t1"},
	}
	v := Build(in)
	for _, g := range v.Groups {
		if g.Name == UnassignedGroup {
			t.Fatal("unassigned group should be absent")
		}
	}
}

func TestCurrentGroup(t *testing.T) {
	v := Build(buildInput())
	g := v.CurrentGroup()
	if g == nil || g.Name != "Testing" {
		t.Fatalf("current group = %+v, want Testing", g)
	}

	in := buildInput()
	in.CurrentTopic = ""
	if Build(in).CurrentGroup() != nil {
		t.Error("no current topic set, CurrentGroup should be nil")
	}
}

func TestExcerptTruncation(t *testing.T) {
	long := make([]rune, 0, 120)
	for i := 0; i < 120; i++ {
		long = append(long, 'x')
	}
	got := excerpt(string(long))
	if len([]rune(got)) != excerptRunes+1 {
		t.Errorf("excerpt length = %d runes", len([]rune(got)))
	}
}
