package detect

import (
	"errors"
	"sync"
	"time"

	"github.com/chatmarks/go-chatmarks/internal/applog"
	"github.com/chatmarks/go-chatmarks/internal/host"
)

// Refresher receives refresh requests from the monitor. Satisfied by the
// refresh scheduler.
type Refresher interface {
	RequestRefresh()
}

// Monitor composes the change-signal sources and owns the single idempotent
// conversation-change handler they all funnel into. The last-seen id lives
// here, on the instance: independent monitors (e.g. under test) share no
// hidden state.
type Monitor struct {
	identity  *host.Identity
	signals   []Signal
	refresher Refresher
	feed      *ChangeFeed

	mu      sync.Mutex
	lastID  string
	stops   []func()
	started bool
}

// NewMonitor creates a monitor over the given signal sources. The feed may
// be shared with other components; pass a fresh one if unused.
func NewMonitor(identity *host.Identity, refresher Refresher, feed *ChangeFeed, signals ...Signal) *Monitor {
	return &Monitor{
		identity:  identity,
		signals:   signals,
		refresher: refresher,
		feed:      feed,
	}
}

// DefaultSignals builds the standard redundant source set for a host root:
// polling, location-file watching, and transcript watching. The transcript
// watcher doubles as the message-mutation source, so its callback requests a
// refresh even when the conversation id is unchanged.
func DefaultSignals(identity *host.Identity, reader *host.Reader, pollInterval time.Duration) []Signal {
	return []Signal{
		NewPoller(identity, pollInterval),
		NewLocationWatcher(identity),
		NewTranscriptWatcher(reader),
	}
}

// Feed returns the monitor's change feed.
func (m *Monitor) Feed() *ChangeFeed {
	return m.feed
}

// Start subscribes to every signal source. Sources that fail to start are
// skipped with a warning: the remaining sources keep detection alive, which
// is the point of running redundant strategies. Start fails only when no
// source could be started.
func (m *Monitor) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return errors.New("monitor already started")
	}
	m.started = true
	m.lastID = m.identity.CurrentID()
	m.mu.Unlock()

	startedCount := 0
	for _, sig := range m.signals {
		cb := m.HandlePossibleChange
		if _, ok := sig.(*TranscriptWatcher); ok {
			cb = m.handleTranscriptChange
		}
		stop, err := sig.Subscribe(cb)
		if err != nil {
			applog.Log.Warn("monitor: signal source failed to start",
				"source", sig.Name(), "error", err)
			continue
		}
		m.mu.Lock()
		m.stops = append(m.stops, stop)
		m.mu.Unlock()
		startedCount++
	}

	if startedCount == 0 && len(m.signals) > 0 {
		return errors.New("monitor: no signal source could be started")
	}
	return nil
}

// Stop halts all running signal sources.
func (m *Monitor) Stop() {
	m.mu.Lock()
	stops := m.stops
	m.stops = nil
	m.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
}

// LastID returns the most recent conversation id the handler accepted.
func (m *Monitor) LastID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastID
}

// HandlePossibleChange is the shared handler every signal funnels into.
// Safe to invoke zero, one, or many times for a single real navigation:
// it re-resolves the live id and no-ops when it matches the last id already
// processed.
func (m *Monitor) HandlePossibleChange() {
	current := m.identity.CurrentID()

	m.mu.Lock()
	if current == m.lastID {
		m.mu.Unlock()
		duplicateSignalsTotal.Inc()
		return
	}
	m.lastID = current
	m.mu.Unlock()

	conversationChangesTotal.Inc()
	applog.Log.Info("conversation changed", "conversation_id", current)

	if m.feed != nil {
		m.feed.Publish(ChangeEvent{ConversationID: current, At: time.Now()})
	}
	if m.refresher != nil {
		m.refresher.RequestRefresh()
	}
}

// handleTranscriptChange runs for transcript mutations: new messages in the
// current conversation still need a re-render even though the id is
// unchanged, so the refresh request is unconditional.
func (m *Monitor) handleTranscriptChange() {
	m.HandlePossibleChange()
	if m.refresher != nil {
		m.refresher.RequestRefresh()
	}
}
