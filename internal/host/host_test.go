package host

import (
	"os"
	"path/filepath"
	"testing"
)

func writeHostFixture(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestParseConversationID(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"/c/abc-123", "abc-123"},
		{"/c/ABC123", "ABC123"},
		{"/c/abc-123?focus=true", "abc-123"},
		{"/", ""},
		{"/settings", ""},
		{"/c/", ""},
		{"", ""},
		{"c/abc", ""},
	}
	for _, tt := range tests {
		if got := ParseConversationID(tt.location); got != tt.want {
			t.Errorf("ParseConversationID(%q) = %q, want %q", tt.location, got, tt.want)
		}
	}
}

func TestIdentity_CurrentID(t *testing.T) {
	root := t.TempDir()
	id := NewIdentity(root)

	// No location file: valid transient state, not an error.
	if got := id.CurrentID(); got != "" {
		t.Errorf("CurrentID() with no location = %q, want empty", got)
	}

	writeHostFixture(t, root, map[string]string{"location": "/c/conv-1\n"})
	if got := id.CurrentID(); got != "conv-1" {
		t.Errorf("CurrentID() = %q, want %q", got, "conv-1")
	}

	// Identity must always reflect the live location.
	writeHostFixture(t, root, map[string]string{"location": "/"})
	if got := id.CurrentID(); got != "" {
		t.Errorf("CurrentID() after navigating away = %q, want empty", got)
	}
}

func TestReader_Transcript(t *testing.T) {
	root := t.TempDir()
	writeHostFixture(t, root, map[string]string{
		"conversations/conv-1.jsonl": `{"id":"m1","author":"user","content":"hello"}
not json at all
{"id":"m2","author":"assistant","content":"hi","extra_field":42}
{"author":"user","content":"no id, skipped"}
`,
	})

	r := NewReader(root)
	messages, err := r.Transcript("conv-1")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2: %+v", len(messages), messages)
	}
	if messages[0].ID != "m1" || messages[0].Author != AuthorUser {
		t.Errorf("unexpected first message: %+v", messages[0])
	}
	if messages[1].ID != "m2" || messages[1].Content != "hi" {
		t.Errorf("unexpected second message: %+v", messages[1])
	}
}

func TestReader_TranscriptMissing(t *testing.T) {
	r := NewReader(t.TempDir())
	_, err := r.Transcript("nope")
	if !os.IsNotExist(err) {
		t.Errorf("Transcript for missing conversation: err = %v, want not-exist", err)
	}
}

func TestReader_Title(t *testing.T) {
	root := t.TempDir()
	writeHostFixture(t, root, map[string]string{
		"conversations/conv-1.jsonl": `{"id":"m0","author":"assistant","content":"welcome"}
{"id":"m1","author":"user","content":"  how   do I\n\ttag messages?  "}
`,
		"conversations/conv-2.jsonl": "",
	})

	r := NewReader(root)
	if got := r.Title("conv-1"); got != "how do I tag messages?" {
		t.Errorf("Title(conv-1) = %q", got)
	}
	if got := r.Title("conv-2"); got != "Untitled Chat" {
		t.Errorf("Title(conv-2) = %q, want Untitled Chat", got)
	}
	if got := r.Title("missing"); got != "Untitled Chat" {
		t.Errorf("Title(missing) = %q, want Untitled Chat", got)
	}
}

func TestReader_ListConversations(t *testing.T) {
	root := t.TempDir()
	writeHostFixture(t, root, map[string]string{
		"conversations/a.jsonl": `{"id":"m1","author":"user","content":"x"}`,
		"conversations/b.jsonl": `{"id":"m1","author":"user","content":"y"}`,
		"conversations/ignored": "not a transcript",
	})

	r := NewReader(root)
	metas, err := r.ListConversations()
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("got %d conversations, want 2", len(metas))
	}
	ids := map[string]bool{metas[0].ID: true, metas[1].ID: true}
	if !ids["a"] || !ids["b"] {
		t.Errorf("unexpected ids: %+v", metas)
	}

	// Missing conversations dir: empty, not an error.
	empty := NewReader(t.TempDir())
	metas, err = empty.ListConversations()
	if err != nil || metas != nil {
		t.Errorf("ListConversations on empty root = %v, %v", metas, err)
	}
}
