package detect

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/chatmarks/go-chatmarks/internal/applog"
	"github.com/chatmarks/go-chatmarks/internal/host"
)

// LocationWatcher observes the host's location file directly, so a
// navigation is seen the moment the host writes it, independent of any
// rendering or polling interval.
type LocationWatcher struct {
	identity *host.Identity
}

// NewLocationWatcher creates a watcher over the identity resolver's
// location file.
func NewLocationWatcher(identity *host.Identity) *LocationWatcher {
	return &LocationWatcher{identity: identity}
}

// Name implements Signal.
func (w *LocationWatcher) Name() string { return "location" }

// Subscribe implements Signal. The parent directory is watched rather than
// the file itself: hosts replace the location file by rename, which would
// silently detach a file-level watch.
func (w *LocationWatcher) Subscribe(fn func()) (func(), error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	locationPath := w.identity.LocationPath()
	if err := fw.Add(filepath.Dir(locationPath)); err != nil {
		fw.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if event.Name != locationPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					signalsTotal.WithLabelValues(w.Name()).Inc()
					fn()
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				applog.Log.Warn("location watcher: fsnotify error", "error", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			fw.Close()
		})
	}, nil
}

// TranscriptWatcher observes the host's conversations directory. Transcript
// writes do not necessarily mean a navigation, but they are the only signal
// that new messages exist, and a navigation often shows up here first.
type TranscriptWatcher struct {
	reader *host.Reader
}

// NewTranscriptWatcher creates a watcher over the reader's conversations
// directory.
func NewTranscriptWatcher(reader *host.Reader) *TranscriptWatcher {
	return &TranscriptWatcher{reader: reader}
}

// Name implements Signal.
func (w *TranscriptWatcher) Name() string { return "transcript" }

// Subscribe implements Signal.
func (w *TranscriptWatcher) Subscribe(fn func()) (func(), error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fw.Add(w.reader.ConversationsDir()); err != nil {
		fw.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".jsonl" {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					signalsTotal.WithLabelValues(w.Name()).Inc()
					fn()
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				applog.Log.Warn("transcript watcher: fsnotify error", "error", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			fw.Close()
		})
	}, nil
}
