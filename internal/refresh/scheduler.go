// Package refresh coalesces the redundant change signals of the detectors
// into single render passes. RequestRefresh may be called arbitrarily often,
// arbitrarily close together; bursts within the quiet window collapse into
// one execution of the refresh routine (trailing-edge debounce). The routine
// itself retries a bounded number of times while the host transcript has not
// materialized, then renders what exists.
package refresh

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/chatmarks/go-chatmarks/internal/applog"
	"github.com/chatmarks/go-chatmarks/internal/host"
	"github.com/chatmarks/go-chatmarks/internal/marks"
	"github.com/chatmarks/go-chatmarks/internal/panel"
)

// IDSource resolves the active conversation id. Satisfied by *host.Identity.
type IDSource interface {
	CurrentID() string
}

// HostSource reads transcripts and host titles. Satisfied by *host.Reader.
type HostSource interface {
	Transcript(conversationID string) ([]host.Message, error)
	Title(conversationID string) string
}

// Sink receives rendered panel views. Render must not block: it runs on the
// scheduler's refresh goroutine.
type Sink interface {
	Render(view panel.View)
}

// Config holds the scheduler's timing policy.
type Config struct {
	Window     time.Duration // debounce quiet window
	Retries    int           // attempts while the transcript is absent
	RetryDelay time.Duration // fixed delay between attempts
}

// DefaultConfig returns the standard policy: 300ms window, 5 retries of
// 500ms each.
func DefaultConfig() Config {
	return Config{
		Window:     300 * time.Millisecond,
		Retries:    5,
		RetryDelay: 500 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Retries <= 0 {
		c.Retries = d.Retries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	return c
}

// Scheduler owns the debounce timer, the retry policy, and the render
// fan-out. All of its state is per instance; independent schedulers share
// nothing.
type Scheduler struct {
	identity IDSource
	hostSrc  HostSource
	store    *marks.Store
	config   Config

	mu       sync.Mutex
	timer    *time.Timer
	sinks    []Sink
	lastView *panel.View
	inFlight sync.WaitGroup
}

// NewScheduler creates a scheduler. Zero config fields fall back to the
// defaults.
func NewScheduler(identity IDSource, hostSrc HostSource, store *marks.Store, config Config) *Scheduler {
	return &Scheduler{
		identity: identity,
		hostSrc:  hostSrc,
		store:    store,
		config:   config.withDefaults(),
	}
}

// AddSink registers a render sink. The sink immediately receives the last
// rendered view, if any, so late subscribers do not wait for the next change.
func (s *Scheduler) AddSink(sink Sink) {
	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	last := s.lastView
	s.mu.Unlock()

	if last != nil {
		sink.Render(*last)
	}
}

// LastView returns the most recently rendered view, or nil before the first
// render pass.
func (s *Scheduler) LastView() *panel.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastView
}

// RequestRefresh schedules a render pass after the quiet window. A pending
// (not yet fired) timer is superseded; a retry sequence already in flight is
// left alone — it completes or exhausts its retries, and the newly scheduled
// pass reconciles any staleness afterwards.
func (s *Scheduler) RequestRefresh() {
	refreshRequestsTotal.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.config.Window, s.runRefresh)
}

// RefreshNow runs a render pass synchronously, bypassing the debounce.
// Used at startup and by one-shot CLI commands.
func (s *Scheduler) RefreshNow() {
	s.inFlight.Add(1)
	defer s.inFlight.Done()
	s.refresh()
}

// Wait blocks until no refresh pass is executing. Test and shutdown helper;
// a concurrently scheduled timer can still start a new pass afterwards.
func (s *Scheduler) Wait() {
	s.inFlight.Wait()
}

// Stop cancels a pending debounce timer. An in-flight pass still runs to
// completion, matching the no-external-cancellation policy of the retry
// loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) runRefresh() {
	s.inFlight.Add(1)
	defer s.inFlight.Done()
	s.refresh()
}

// refresh is the render routine. Failures are absorbed: a storage error
// skips the cycle (the next observed change retries from current state), an
// absent transcript downgrades to an empty message list after the bounded
// retries.
func (s *Scheduler) refresh() {
	defer applog.Log.Timed("refresh pass")()
	ctx := context.Background()

	conversationID := s.identity.CurrentID()
	if conversationID == "" {
		// No conversation open: valid state, render the empty panel.
		s.deliver(panel.View{})
		return
	}

	topics, err := s.store.Topics(ctx, conversationID)
	if err != nil {
		s.skipCycle(err)
		return
	}
	bookmarks, err := s.store.Bookmarks(ctx, conversationID)
	if err != nil {
		s.skipCycle(err)
		return
	}
	currentTopic, err := s.store.CurrentTopic(ctx, conversationID)
	if err != nil {
		s.skipCycle(err)
		return
	}
	customTitle, err := s.store.CustomTitle(ctx, conversationID)
	if err != nil {
		s.skipCycle(err)
		return
	}

	messages := s.loadTranscript(conversationID)

	title := customTitle
	if title == "" {
		title = s.hostSrc.Title(conversationID)
	}

	view := panel.Build(panel.BuildInput{
		ConversationID: conversationID,
		Title:          title,
		HasCustomTitle: customTitle != "",
		Topics:         topics,
		Bookmarks:      bookmarks,
		CurrentTopic:   currentTopic,
		Messages:       messages,
	})
	s.deliver(view)
}

// loadTranscript reads the conversation transcript, retrying while the host
// has not written the file yet. The host renders asynchronously after a
// navigation, so a brief absence is normal; a conversation that legitimately
// has no messages yet would otherwise pin an unbounded loop, hence the hard
// attempt bound and the silent give-up.
func (s *Scheduler) loadTranscript(conversationID string) []host.Message {
	for attempt := 1; ; attempt++ {
		messages, err := s.hostSrc.Transcript(conversationID)
		if err == nil {
			return messages
		}
		if !os.IsNotExist(err) {
			applog.Log.Warn("transcript read failed", "conversation_id", conversationID, "error", err)
			return nil
		}
		if attempt >= s.config.Retries {
			renderGiveUpsTotal.Inc()
			applog.Log.Debug("transcript never materialized",
				"conversation_id", conversationID, "attempts", attempt)
			return nil
		}
		renderRetriesTotal.Inc()
		time.Sleep(s.config.RetryDelay)
	}
}

func (s *Scheduler) skipCycle(err error) {
	storageFailuresTotal.Inc()
	applog.Log.Warn("refresh cycle skipped", "error", err)
}

func (s *Scheduler) deliver(view panel.View) {
	view.RenderedAt = time.Now()

	s.mu.Lock()
	s.lastView = &view
	sinks := make([]Sink, len(s.sinks))
	copy(sinks, s.sinks)
	s.mu.Unlock()

	rendersTotal.Inc()
	for _, sink := range sinks {
		sink.Render(view)
	}
}
