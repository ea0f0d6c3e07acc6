package server

import (
	"net/http"
	"time"

	"github.com/ayusman/holoroom/internal/log"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LandmarksHandler pushes one JSON result per rendered frame over WebSocket.
type LandmarksHandler struct {
	source FrameSource
}

// NewLandmarksHandler creates a new LandmarksHandler over source.
func NewLandmarksHandler(source FrameSource) *LandmarksHandler {
	return &LandmarksHandler{source: source}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.source.Subscribe()
	defer cancel()

	// The reader only notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var last uint64
	for {
		select {
		case <-gone:
			return
		case _, ok := <-updates:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream ended"),
					time.Now().Add(writeWait))
				return
			}

			_, result, seq := h.source.Latest()
			if seq == last || len(result) == 0 {
				continue
			}
			last = seq

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, result); err != nil {
				log.Debug("websocket client dropped", "error", err)
				return
			}
		}
	}
}
