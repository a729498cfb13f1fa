package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/chatmarks/go-chatmarks/internal/applog"
)

// handleChangesWS upgrades to WebSocket and streams conversation change
// events. The first frame reports the currently active conversation so
// clients need no separate bootstrap request.
func (s *HTTPServer) handleChangesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		applog.Log.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	type changeFrame struct {
		ConversationID string `json:"conversationId"`
		At             string `json:"at,omitempty"`
		Initial        bool   `json:"initial,omitempty"`
	}

	initial := changeFrame{
		ConversationID: s.deps.Identity.CurrentID(),
		Initial:        true,
	}
	if data, err := json.Marshal(initial); err == nil {
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			return
		}
	}

	ch, unsub := s.deps.Feed.Subscribe()
	defer unsub()

	wsClientsActive.Inc()
	defer wsClientsActive.Dec()
	applog.Log.Info("websocket client connected")

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return
		case event, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "subscription closed")
				return
			}
			frame := changeFrame{
				ConversationID: event.ConversationID,
				At:             event.At.Format(time.RFC3339Nano),
			}
			data, err := json.Marshal(frame)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				applog.Log.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
