package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const wsWriteTimeout = 10 * time.Second

// handleProgressSocket streams run progress for a thread over a websocket.
// Clients connect to /ws?thread={id}.
func (s *Server) handleProgressSocket(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("thread")
	if threadID == "" {
		http.Error(w, "thread query parameter is required", http.StatusBadRequest)
		return
	}

	updates, cancel, err := s.hub.Subscribe(threadID)
	if err != nil {
		http.Error(w, "Thread not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		s.app.Logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer func() {
		cancel()
		conn.Close()
	}()

	// Reader goroutine: we never expect client frames, but reading is what
	// detects a closed peer.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(update); err != nil {
				return
			}
			if update.Status == StatusCompleted || update.Status == StatusFailed {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, update.Status))
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
