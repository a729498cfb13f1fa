package detect

import (
	"sync"
	"time"

	"github.com/chatmarks/go-chatmarks/internal/host"
)

// Poller compares the resolved conversation id against the last value it
// observed, on a fixed interval. The slowest but most dependable source:
// it catches navigations every other signal missed.
type Poller struct {
	identity *host.Identity
	interval time.Duration
}

// NewPoller creates a poller over the given identity resolver. A zero
// interval defaults to 500ms.
func NewPoller(identity *host.Identity, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Poller{identity: identity, interval: interval}
}

// Name implements Signal.
func (p *Poller) Name() string { return "poll" }

// Subscribe implements Signal.
func (p *Poller) Subscribe(fn func()) (func(), error) {
	ticker := time.NewTicker(p.interval)
	done := make(chan struct{})

	// Baseline is captured before the goroutine starts so a navigation
	// racing Subscribe is signaled on the first tick instead of absorbed.
	last := p.identity.CurrentID()

	go func() {
		for {
			select {
			case <-ticker.C:
				current := p.identity.CurrentID()
				if current != last {
					last = current
					signalsTotal.WithLabelValues(p.Name()).Inc()
					fn()
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}, nil
}
