package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chatmarks/go-chatmarks/internal/host"
	"github.com/chatmarks/go-chatmarks/internal/kv"
	"github.com/chatmarks/go-chatmarks/internal/marks"
	"github.com/chatmarks/go-chatmarks/internal/panel"
)

type fixedID struct {
	mu sync.Mutex
	id string
}

func (f *fixedID) CurrentID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

func (f *fixedID) set(id string) {
	f.mu.Lock()
	f.id = id
	f.mu.Unlock()
}

type fakeHost struct {
	mu          sync.Mutex
	transcripts map[string][]host.Message
	reads       int
}

func (f *fakeHost) Transcript(id string) ([]host.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if msgs, ok := f.transcripts[id]; ok {
		return msgs, nil
	}
	return nil, os.ErrNotExist
}

func (f *fakeHost) Title(id string) string { return "Untitled Chat" }

func (f *fakeHost) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

type countingSink struct {
	mu    sync.Mutex
	views []panel.View
}

func (c *countingSink) Render(v panel.View) {
	c.mu.Lock()
	c.views = append(c.views, v)
	c.mu.Unlock()
}

func (c *countingSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.views)
}

func (c *countingSink) last() panel.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.views[len(c.views)-1]
}

func newTestStore(t *testing.T) *marks.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marks.json")
	return marks.NewStore(kv.NewFileStore(path))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestDebounceCoalescesBurst(t *testing.T) {
	identity := &fixedID{id: "conv-1"}
	hostSrc := &fakeHost{transcripts: map[string][]host.Message{
		"conv-1": {{ID: "m1", Author: host.AuthorUser, Content: "hello"}},
	}}
	sink := &countingSink{}

	s := NewScheduler(identity, hostSrc, newTestStore(t), Config{
		Window: 50 * time.Millisecond, Retries: 1, RetryDelay: time.Millisecond,
	})
	s.AddSink(sink)
	defer s.Stop()

	for i := 0; i < 10; i++ {
		s.RequestRefresh()
	}

	waitFor(t, time.Second, func() bool { return sink.count() >= 1 })
	time.Sleep(100 * time.Millisecond)
	s.Wait()

	if got := sink.count(); got != 1 {
		t.Fatalf("renders = %d, want 1", got)
	}
	if got := sink.last().ConversationID; got != "conv-1" {
		t.Errorf("conversation id = %q, want conv-1", got)
	}
}

func TestSpacedRequestsRenderIndependently(t *testing.T) {
	identity := &fixedID{id: "conv-1"}
	hostSrc := &fakeHost{transcripts: map[string][]host.Message{"conv-1": {}}}
	sink := &countingSink{}

	s := NewScheduler(identity, hostSrc, newTestStore(t), Config{
		Window: 60 * time.Millisecond, Retries: 1, RetryDelay: time.Millisecond,
	})
	s.AddSink(sink)
	defer s.Stop()

	// Two requests inside one window, a third after the window elapsed.
	s.RequestRefresh()
	time.Sleep(20 * time.Millisecond)
	s.RequestRefresh()

	waitFor(t, time.Second, func() bool { return sink.count() == 1 })

	s.RequestRefresh()
	waitFor(t, time.Second, func() bool { return sink.count() == 2 })

	time.Sleep(100 * time.Millisecond)
	s.Wait()
	if got := sink.count(); got != 2 {
		t.Fatalf("renders = %d, want 2", got)
	}
}

func TestAbsentTranscriptRetriesBoundedThenRenders(t *testing.T) {
	identity := &fixedID{id: "conv-missing"}
	hostSrc := &fakeHost{transcripts: map[string][]host.Message{}}
	sink := &countingSink{}

	s := NewScheduler(identity, hostSrc, newTestStore(t), Config{
		Window: time.Millisecond, Retries: 5, RetryDelay: time.Millisecond,
	})
	s.AddSink(sink)

	s.RefreshNow()

	if got := hostSrc.readCount(); got != 5 {
		t.Errorf("transcript attempts = %d, want 5", got)
	}
	if got := sink.count(); got != 1 {
		t.Fatalf("renders = %d, want 1", got)
	}
	v := sink.last()
	if v.ConversationID != "conv-missing" {
		t.Errorf("conversation id = %q", v.ConversationID)
	}
	if len(v.Messages) != 0 {
		t.Errorf("messages = %d, want 0", len(v.Messages))
	}
}

func TestNoConversationRendersEmptyView(t *testing.T) {
	identity := &fixedID{}
	hostSrc := &fakeHost{}
	sink := &countingSink{}

	s := NewScheduler(identity, hostSrc, newTestStore(t), DefaultConfig())
	s.AddSink(sink)

	s.RefreshNow()

	if got := sink.count(); got != 1 {
		t.Fatalf("renders = %d, want 1", got)
	}
	if got := sink.last().ConversationID; got != "" {
		t.Errorf("conversation id = %q, want empty", got)
	}
	if got := hostSrc.readCount(); got != 0 {
		t.Errorf("transcript reads = %d, want 0", got)
	}
}

type failingKV struct{}

func (failingKV) Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	return nil, errors.New("backend down")
}

func (failingKV) Set(ctx context.Context, values map[string]json.RawMessage) error {
	return errors.New("backend down")
}

func TestStorageFailureSkipsCycleKeepingLastView(t *testing.T) {
	identity := &fixedID{id: "conv-1"}
	hostSrc := &fakeHost{transcripts: map[string][]host.Message{"conv-1": {}}}
	sink := &countingSink{}

	good := NewScheduler(identity, hostSrc, newTestStore(t), DefaultConfig())
	good.AddSink(sink)
	good.RefreshNow()
	if sink.count() != 1 {
		t.Fatalf("setup render count = %d", sink.count())
	}

	// A scheduler over a failing backend must deliver nothing to its sinks.
	bad := NewScheduler(identity, hostSrc, marks.NewStore(failingKV{}), DefaultConfig())
	bad.AddSink(sink)
	bad.RefreshNow()

	if got := sink.count(); got != 1 {
		t.Fatalf("renders after failed cycle = %d, want 1", got)
	}
	if bad.LastView() != nil {
		t.Error("failed cycle must not record a view")
	}
	if good.LastView() == nil {
		t.Error("earlier view lost")
	}
}

func TestLateSinkReceivesLastView(t *testing.T) {
	identity := &fixedID{id: "conv-1"}
	hostSrc := &fakeHost{transcripts: map[string][]host.Message{"conv-1": {}}}

	s := NewScheduler(identity, hostSrc, newTestStore(t), DefaultConfig())
	s.RefreshNow()

	sink := &countingSink{}
	s.AddSink(sink)
	if got := sink.count(); got != 1 {
		t.Fatalf("late sink renders = %d, want 1", got)
	}
}

func TestNavigationChangesRenderedConversation(t *testing.T) {
	identity := &fixedID{id: "conv-1"}
	hostSrc := &fakeHost{transcripts: map[string][]host.Message{
		"conv-1": {}, "conv-2": {},
	}}
	sink := &countingSink{}

	s := NewScheduler(identity, hostSrc, newTestStore(t), DefaultConfig())
	s.AddSink(sink)

	s.RefreshNow()
	identity.set("conv-2")
	s.RefreshNow()

	if got := sink.count(); got != 2 {
		t.Fatalf("renders = %d, want 2", got)
	}
	if got := sink.last().ConversationID; got != "conv-2" {
		t.Errorf("conversation id = %q, want conv-2", got)
	}
}
