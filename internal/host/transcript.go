package host

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const untitledChat = "Untitled Chat"

// maxTitleLen bounds host-derived titles to what the panel header can show.
const maxTitleLen = 60

// Reader reads conversations from the host application's storage.
type Reader struct {
	root string
}

// NewReader creates a Reader over the given host root.
func NewReader(root string) *Reader {
	return &Reader{root: root}
}

// ConversationsDir returns the directory holding transcript files.
func (r *Reader) ConversationsDir() string {
	return filepath.Join(r.root, "conversations")
}

// TranscriptPath returns the transcript path for a conversation id.
func (r *Reader) TranscriptPath(conversationID string) string {
	return filepath.Join(r.ConversationsDir(), conversationID+".jsonl")
}

// Transcript streams the messages of a conversation. A missing transcript is
// not an error from the caller's perspective of "no messages yet": it returns
// os.ErrNotExist so the scheduler can distinguish not-ready from empty.
// Malformed lines are skipped; the host owns its own format drift.
func (r *Reader) Transcript(conversationID string) ([]Message, error) {
	f, err := os.Open(r.TranscriptPath(conversationID))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var messages []Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		if msg.ID == "" {
			continue
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return messages, err
	}
	return messages, nil
}

// ListConversations returns the conversations present under the host root,
// most recently modified first.
func (r *Reader) ListConversations() ([]ConversationMeta, error) {
	entries, err := os.ReadDir(r.ConversationsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var metas []ConversationMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		meta := ConversationMeta{
			ID:   strings.TrimSuffix(entry.Name(), ".jsonl"),
			Path: filepath.Join(r.ConversationsDir(), entry.Name()),
		}
		if info, err := entry.Info(); err == nil {
			meta.ModifiedAt = info.ModTime()
		}
		metas = append(metas, meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].ModifiedAt.After(metas[j].ModifiedAt)
	})
	return metas, nil
}

// Title derives a display title for a conversation from its transcript:
// the first user message, whitespace-collapsed and truncated. Falls back to
// "Untitled Chat" when nothing usable exists, mirroring what the host itself
// shows for a fresh conversation.
func (r *Reader) Title(conversationID string) string {
	messages, err := r.Transcript(conversationID)
	if err != nil {
		return untitledChat
	}
	for _, msg := range messages {
		if msg.Author != AuthorUser {
			continue
		}
		title := strings.Join(strings.Fields(msg.Content), " ")
		if title == "" {
			continue
		}
		return truncateTitle(title)
	}
	return untitledChat
}

func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= maxTitleLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxTitleLen-1]) + "…"
}

// ModifiedWithin reports whether the conversation's transcript changed inside
// the given window. Used by callers that want an activity heuristic without
// reading the transcript.
func (r *Reader) ModifiedWithin(conversationID string, window time.Duration) bool {
	info, err := os.Stat(r.TranscriptPath(conversationID))
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) <= window
}
