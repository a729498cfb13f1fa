package marks

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/chatmarks/go-chatmarks/internal/kv"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(kv.NewFileStore(filepath.Join(t.TempDir(), "marks.json")))
}

// countingRefresher records refresh requests triggered by mutations.
type countingRefresher struct {
	calls int
}

func (r *countingRefresher) RequestRefresh() { r.calls++ }

func TestAddTopic_FreshID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existing, err := s.AddTopic(ctx, "abc", "Work")
	if err != nil {
		t.Fatalf("AddTopic: %v", err)
	}

	added, err := s.AddTopic(ctx, "abc", "x")
	if err != nil {
		t.Fatalf("AddTopic: %v", err)
	}

	topics, err := s.Topics(ctx, "abc")
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(topics))
	}
	if topics[1].Name != "x" {
		t.Errorf("new topic name = %q, want %q", topics[1].Name, "x")
	}
	if added.ID == "" || added.ID == existing.ID {
		t.Errorf("new topic id %q must be fresh and distinct from %q", added.ID, existing.ID)
	}
}

func TestAddTopic_EmptyName(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddTopic(context.Background(), "abc", ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("AddTopic with empty name: err = %v, want ErrEmptyName", err)
	}
}

func TestRenameTopic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	topic, _ := s.AddTopic(ctx, "abc", "Work")
	if err := s.SetBookmark(ctx, "abc", "m1", "note", topic.ID); err != nil {
		t.Fatal(err)
	}

	if err := s.RenameTopic(ctx, "abc", topic.ID, "Projects"); err != nil {
		t.Fatalf("RenameTopic: %v", err)
	}

	topics, _ := s.Topics(ctx, "abc")
	if topics[0].Name != "Projects" {
		t.Errorf("name = %q, want %q", topics[0].Name, "Projects")
	}
	// Bookmarks reference by id; the association must survive the rename.
	bookmarks, _ := s.Bookmarks(ctx, "abc")
	if bookmarks["m1"].TopicID != topic.ID {
		t.Errorf("bookmark lost its topic: %+v", bookmarks["m1"])
	}

	if err := s.RenameTopic(ctx, "abc", "missing", "x"); !errors.Is(err, ErrTopicNotFound) {
		t.Errorf("rename of missing topic: err = %v, want ErrTopicNotFound", err)
	}
}

func TestDeleteTopic_CascadesToBookmarks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Conversation abc: topics [{id,name:"Work"}], bookmark m1 -> that topic.
	topic, _ := s.AddTopic(ctx, "abc", "Work")
	if err := s.SetBookmark(ctx, "abc", "m1", "note", topic.ID); err != nil {
		t.Fatal(err)
	}
	other, _ := s.AddTopic(ctx, "abc", "Other")
	if err := s.SetBookmark(ctx, "abc", "m2", "keep", other.ID); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteTopic(ctx, "abc", topic.ID); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}

	topics, _ := s.Topics(ctx, "abc")
	for _, tp := range topics {
		if tp.ID == topic.ID {
			t.Errorf("deleted topic still present: %+v", topics)
		}
	}

	bookmarks, _ := s.Bookmarks(ctx, "abc")
	b, ok := bookmarks["m1"]
	if !ok {
		t.Fatal("bookmark m1 was deleted; cascade must only clear the reference")
	}
	if b.Name != "note" || b.TopicID != "" {
		t.Errorf("bookmark m1 = %+v, want name retained and topicId cleared", b)
	}
	if bookmarks["m2"].TopicID != other.ID {
		t.Errorf("unrelated bookmark was touched: %+v", bookmarks["m2"])
	}
}

func TestDeleteTopic_PersistedShape(t *testing.T) {
	// The stored bookmark must drop the topicId key entirely, not keep it
	// as an empty string.
	backend := kv.NewFileStore(filepath.Join(t.TempDir(), "marks.json"))
	s := NewStore(backend)
	ctx := context.Background()

	topic, _ := s.AddTopic(ctx, "abc", "Work")
	if err := s.SetBookmark(ctx, "abc", "m1", "note", topic.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTopic(ctx, "abc", topic.ID); err != nil {
		t.Fatal(err)
	}

	raw, err := kv.GetOne(ctx, backend, KeyBookmarks)
	if err != nil {
		t.Fatal(err)
	}
	var stored map[string]map[string]map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatal(err)
	}
	if _, present := stored["abc"]["m1"]["topicId"]; present {
		t.Errorf("topicId key still present after cascade: %v", stored["abc"]["m1"])
	}
}

func TestSetBookmark_RoundTripAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetBookmark(ctx, "c", "m", "label", "t"); err != nil {
		t.Fatalf("SetBookmark: %v", err)
	}
	bookmarks, err := s.Bookmarks(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if b := bookmarks["m"]; b.Name != "label" || b.TopicID != "t" {
		t.Errorf("round trip = %+v, want {label t}", b)
	}

	// Empty name deletes the entry entirely.
	if err := s.SetBookmark(ctx, "c", "m", "", ""); err != nil {
		t.Fatalf("SetBookmark delete: %v", err)
	}
	bookmarks, err = s.Bookmarks(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := bookmarks["m"]; ok {
		t.Errorf("bookmark still present after empty-name set: %v", bookmarks)
	}
}

func TestSetCurrentTopic_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetCurrentTopic(ctx, "c", "t1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCurrentTopic(ctx, "c", ""); err != nil {
		t.Fatal(err)
	}
	first, err := s.CurrentTopic(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}

	// Clearing again yields the same stored value as clearing once.
	if err := s.SetCurrentTopic(ctx, "c", ""); err != nil {
		t.Fatal(err)
	}
	second, err := s.CurrentTopic(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if first != "" || second != first {
		t.Errorf("clear not idempotent: first %q, second %q", first, second)
	}
}

func TestCustomTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetCustomTitle(ctx, "c", "My research thread"); err != nil {
		t.Fatal(err)
	}
	title, err := s.CustomTitle(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if title != "My research thread" {
		t.Errorf("title = %q", title)
	}

	if err := s.SetCustomTitle(ctx, "c", ""); err != nil {
		t.Fatal(err)
	}
	title, _ = s.CustomTitle(ctx, "c")
	if title != "" {
		t.Errorf("title after clear = %q, want empty", title)
	}
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// First use: zero counts, no error.
	topics, bookmarks, err := s.Counts(ctx)
	if err != nil || topics != 0 || bookmarks != 0 {
		t.Fatalf("Counts on empty store = %d, %d, %v", topics, bookmarks, err)
	}

	s.AddTopic(ctx, "a", "one")
	s.AddTopic(ctx, "a", "two")
	s.AddTopic(ctx, "b", "three")
	s.SetBookmark(ctx, "a", "m1", "x", "")
	s.SetBookmark(ctx, "b", "m2", "y", "")

	topics, bookmarks, err = s.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if topics != 3 || bookmarks != 2 {
		t.Errorf("Counts = %d topics, %d bookmarks; want 3, 2", topics, bookmarks)
	}
}

func TestMutationsTriggerRefresh(t *testing.T) {
	s := newTestStore(t)
	r := &countingRefresher{}
	s.SetRefresher(r)
	ctx := context.Background()

	topic, _ := s.AddTopic(ctx, "c", "Work")
	s.RenameTopic(ctx, "c", topic.ID, "Play")
	s.SetBookmark(ctx, "c", "m", "note", topic.ID)
	s.SetCurrentTopic(ctx, "c", topic.ID)
	s.DeleteTopic(ctx, "c", topic.ID)
	s.SetCustomTitle(ctx, "c", "t")

	if r.calls != 6 {
		t.Errorf("refresh requests = %d, want 6 (one per successful mutation)", r.calls)
	}
}

func TestReads_FirstUseDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	topics, err := s.Topics(ctx, "never-seen")
	if err != nil || topics != nil {
		t.Errorf("Topics first use = %v, %v; want empty, nil", topics, err)
	}
	bookmarks, err := s.Bookmarks(ctx, "never-seen")
	if err != nil || len(bookmarks) != 0 {
		t.Errorf("Bookmarks first use = %v, %v", bookmarks, err)
	}
	current, err := s.CurrentTopic(ctx, "never-seen")
	if err != nil || current != "" {
		t.Errorf("CurrentTopic first use = %q, %v", current, err)
	}
}
