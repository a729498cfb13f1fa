// Package server implements the HTTP and MCP surfaces for chatmarks serve.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chatmarks/go-chatmarks/internal/applog"
	"github.com/chatmarks/go-chatmarks/internal/config"
	"github.com/chatmarks/go-chatmarks/internal/detect"
	"github.com/chatmarks/go-chatmarks/internal/host"
	"github.com/chatmarks/go-chatmarks/internal/marks"
	"github.com/chatmarks/go-chatmarks/internal/refresh"
)

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	ConfigPath string // where settings updates persist; empty uses the default
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Host: "localhost",
		Port: 7845,
	}
}

// Deps bundles the engine pieces the server exposes.
type Deps struct {
	Identity  *host.Identity
	Reader    *host.Reader
	Store     *marks.Store
	Scheduler *refresh.Scheduler
	Feed      *detect.ChangeFeed
	AppConfig config.Config
}

// HTTPServer serves the REST API and the change stream.
type HTTPServer struct {
	deps   Deps
	router chi.Router
	config Config

	settingsMu sync.Mutex
	settings   config.PanelSettings
}

// NewHTTPServer creates a new HTTP server.
func NewHTTPServer(deps Deps, cfg Config) *HTTPServer {
	s := &HTTPServer{
		deps:     deps,
		config:   cfg,
		settings: deps.AppConfig.Settings,
	}
	s.router = s.setupRouter()
	return s
}

// setupRouter configures all routes.
func (s *HTTPServer) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/panel", s.handleGetPanel)
		r.Get("/conversations", s.handleListConversations)
		r.Route("/conversations/{conversationID}", func(r chi.Router) {
			r.Get("/topics", s.handleGetTopics)
			r.Post("/topics", s.handleAddTopic)
			r.Put("/topics/{topicID}", s.handleRenameTopic)
			r.Delete("/topics/{topicID}", s.handleDeleteTopic)
			r.Get("/bookmarks", s.handleGetBookmarks)
			r.Put("/bookmarks/{messageID}", s.handleSetBookmark)
			r.Get("/current-topic", s.handleGetCurrentTopic)
			r.Put("/current-topic", s.handleSetCurrentTopic)
			r.Get("/title", s.handleGetTitle)
			r.Put("/title", s.handleSetTitle)
		})
		r.Get("/stats", s.handleGetStats)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleSetSettings)
	})

	r.Get("/ws/changes", s.handleChangesWS)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Chatmarks</title></head>
<body>
<h1>Chatmarks Server</h1>
<p>API available at <a href="/api/v1/panel">/api/v1/panel</a></p>
</body>
</html>`))
	})

	return r
}

// Router returns the chi router for tests and for combining with other
// servers.
func (s *HTTPServer) Router() chi.Router {
	return s.router
}

// Addr returns the server address.
func (s *HTTPServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *HTTPServer) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr(),
		Handler: s.router,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	if s.config.Port == 0 {
		s.config.Port = ln.Addr().(*net.TCPAddr).Port
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	applog.Log.Info("http server listening", "addr", s.Addr())
	fmt.Printf("Server running at http://%s\n", s.Addr())
	return srv.Serve(ln)
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
