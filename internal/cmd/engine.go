package cmd

import (
	"fmt"

	"github.com/chatmarks/go-chatmarks/internal/applog"
	"github.com/chatmarks/go-chatmarks/internal/config"
	"github.com/chatmarks/go-chatmarks/internal/detect"
	"github.com/chatmarks/go-chatmarks/internal/host"
	"github.com/chatmarks/go-chatmarks/internal/kv"
	"github.com/chatmarks/go-chatmarks/internal/marks"
	"github.com/chatmarks/go-chatmarks/internal/refresh"
)

// engine bundles the wired sync engine for a command invocation.
type engine struct {
	cfg       config.Config
	identity  *host.Identity
	reader    *host.Reader
	store     *marks.Store
	scheduler *refresh.Scheduler
	monitor   *detect.Monitor
	feed      *detect.ChangeFeed

	closeBackend func() error
}

// loadConfig reads the config file, honoring --config.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// openBackend selects the key-value backend from config.
func openBackend(cfg config.Config) (kv.Store, func() error, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Storage.Backend {
	case "", "file":
		return kv.NewFileStore(path), func() error { return nil }, nil
	case "duckdb":
		store, err := kv.NewDuckDBStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open duckdb store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// buildEngine wires identity, storage, scheduler, and monitor together.
// The monitor is constructed but not started; callers that want live change
// detection call eng.monitor.Start().
func buildEngine() (*engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	applog.Log.SetLevel(applog.ParseLevel(cfg.Logging.Level))

	root, err := cfg.DefaultHostRoot()
	if err != nil {
		return nil, err
	}

	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	identity := host.NewIdentity(root)
	reader := host.NewReader(root)
	store := marks.NewStore(backend)

	scheduler := refresh.NewScheduler(identity, reader, store, refresh.Config{
		Window:     cfg.Engine.DebounceDuration(),
		Retries:    cfg.Engine.RenderRetries,
		RetryDelay: cfg.Engine.RetryDelayDuration(),
	})
	store.SetRefresher(scheduler)

	feed := detect.NewChangeFeed()
	signals := detect.DefaultSignals(identity, reader, cfg.Engine.PollDuration())
	monitor := detect.NewMonitor(identity, scheduler, feed, signals...)

	return &engine{
		cfg:          cfg,
		identity:     identity,
		reader:       reader,
		store:        store,
		scheduler:    scheduler,
		monitor:      monitor,
		feed:         feed,
		closeBackend: closeBackend,
	}, nil
}

// close releases the engine's resources.
func (e *engine) close() {
	e.monitor.Stop()
	e.scheduler.Stop()
	e.scheduler.Wait()
	if e.closeBackend != nil {
		e.closeBackend()
	}
}

// resolveConversation returns the flagged conversation id, falling back to
// the active one.
func (e *engine) resolveConversation(flagged string) (string, error) {
	if flagged != "" {
		return flagged, nil
	}
	id := e.identity.CurrentID()
	if id == "" {
		return "", fmt.Errorf("no conversation open; pass --conversation")
	}
	return id, nil
}
