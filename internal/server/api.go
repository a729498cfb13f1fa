package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatmarks/go-chatmarks/internal/applog"
	"github.com/chatmarks/go-chatmarks/internal/config"
	"github.com/chatmarks/go-chatmarks/internal/host"
	"github.com/chatmarks/go-chatmarks/internal/marks"
)

// API response types

// ConversationsResponse lists conversations found under the host root.
type ConversationsResponse struct {
	Active        string                  `json:"active,omitempty"`
	Conversations []host.ConversationMeta `json:"conversations"`
}

// TopicsResponse lists a conversation's topics.
type TopicsResponse struct {
	Topics []marks.Topic `json:"topics"`
}

// BookmarksResponse maps message ids to bookmarks.
type BookmarksResponse struct {
	Bookmarks map[string]marks.Bookmark `json:"bookmarks"`
}

// CurrentTopicResponse carries the current topic selection.
type CurrentTopicResponse struct {
	TopicID string `json:"topicId"`
}

// TitleResponse carries the display title.
type TitleResponse struct {
	Title  string `json:"title"`
	Custom bool   `json:"custom"`
}

// StatsResponse carries aggregate counts across all conversations.
type StatsResponse struct {
	Topics    int `json:"topics"`
	Bookmarks int `json:"bookmarks"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, msg string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: msg})
}

// writeStoreError maps store errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marks.ErrEmptyName):
		writeError(w, http.StatusBadRequest, "empty_name", err.Error())
	case errors.Is(err, marks.ErrTopicNotFound):
		writeError(w, http.StatusNotFound, "topic_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "storage_failed", err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return false
	}
	return true
}

// handleGetPanel returns the latest rendered panel view, rendering one
// synchronously if nothing has been rendered yet.
func (s *HTTPServer) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	view := s.deps.Scheduler.LastView()
	if view == nil {
		s.deps.Scheduler.RefreshNow()
		view = s.deps.Scheduler.LastView()
	}
	if view == nil {
		writeError(w, http.StatusServiceUnavailable, "not_rendered", "no panel view available")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleListConversations returns conversations under the host root, newest
// first.
func (s *HTTPServer) handleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.deps.Reader.ListConversations()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ConversationsResponse{
		Active:        s.deps.Identity.CurrentID(),
		Conversations: conversations,
	})
}

func (s *HTTPServer) handleGetTopics(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	topics, err := s.deps.Store.Topics(r.Context(), conversationID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if topics == nil {
		topics = []marks.Topic{}
	}
	writeJSON(w, http.StatusOK, TopicsResponse{Topics: topics})
}

func (s *HTTPServer) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	topic, err := s.deps.Store.AddTopic(r.Context(), conversationID, body.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

func (s *HTTPServer) handleRenameTopic(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	topicID := chi.URLParam(r, "topicID")
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.deps.Store.RenameTopic(r.Context(), conversationID, topicID, body.Name); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	topicID := chi.URLParam(r, "topicID")
	if err := s.deps.Store.DeleteTopic(r.Context(), conversationID, topicID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleGetBookmarks(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	bookmarks, err := s.deps.Store.Bookmarks(r.Context(), conversationID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BookmarksResponse{Bookmarks: bookmarks})
}

// handleSetBookmark upserts a bookmark. An empty name removes it.
func (s *HTTPServer) handleSetBookmark(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	messageID := chi.URLParam(r, "messageID")
	var body struct {
		Name    string `json:"name"`
		TopicID string `json:"topicId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.deps.Store.SetBookmark(r.Context(), conversationID, messageID, body.Name, body.TopicID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleGetCurrentTopic(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	topicID, err := s.deps.Store.CurrentTopic(r.Context(), conversationID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CurrentTopicResponse{TopicID: topicID})
}

func (s *HTTPServer) handleSetCurrentTopic(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	var body CurrentTopicResponse
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.deps.Store.SetCurrentTopic(r.Context(), conversationID, body.TopicID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetTitle returns the display title: the custom title when set,
// otherwise the host-derived one.
func (s *HTTPServer) handleGetTitle(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	custom, err := s.deps.Store.CustomTitle(r.Context(), conversationID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if custom != "" {
		writeJSON(w, http.StatusOK, TitleResponse{Title: custom, Custom: true})
		return
	}
	writeJSON(w, http.StatusOK, TitleResponse{Title: s.deps.Reader.Title(conversationID)})
}

// handleSetTitle sets the custom title. An empty title reverts to the
// host-derived one.
func (s *HTTPServer) handleSetTitle(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	var body struct {
		Title string `json:"title"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.deps.Store.SetCustomTitle(r.Context(), conversationID, body.Title); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	topics, bookmarks, err := s.deps.Store.Counts(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Topics: topics, Bookmarks: bookmarks})
}

func (s *HTTPServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.settingsMu.Lock()
	settings := s.settings
	s.settingsMu.Unlock()
	writeJSON(w, http.StatusOK, settings)
}

// handleSetSettings validates and persists panel settings. The engine stores
// them without interpreting them.
func (s *HTTPServer) handleSetSettings(w http.ResponseWriter, r *http.Request) {
	var body config.PanelSettings
	if !decodeBody(w, r, &body) {
		return
	}
	if body.AutoTopic != "enabled" && body.AutoTopic != "disabled" {
		writeError(w, http.StatusBadRequest, "invalid_settings", "autoTopic must be enabled or disabled")
		return
	}
	if body.TopicPosition != "left" && body.TopicPosition != "right" {
		writeError(w, http.StatusBadRequest, "invalid_settings", "topicPosition must be left or right")
		return
	}

	s.settingsMu.Lock()
	s.settings = body
	cfg := s.deps.AppConfig
	cfg.Settings = body
	s.deps.AppConfig = cfg
	s.settingsMu.Unlock()

	if err := s.saveSettings(cfg); err != nil {
		applog.Log.Warn("settings persist failed", "error", err)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *HTTPServer) saveSettings(cfg config.Config) error {
	if s.config.ConfigPath != "" {
		return config.SaveTo(s.config.ConfigPath, cfg)
	}
	return config.Save(cfg)
}
