package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is handled by the middleware
		return true
	},
}

// LiveLogSocket handles GET /ws/live_log. It replays the current log, then streams new entries as JSON.
func (h *APIHandler) LiveLogSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "request_id", requestIDFrom(c), "error", err)
		return
	}
	defer conn.Close()

	// subscribe before the replay so nothing appended in between is lost
	entries, unsubscribe := h.subscriber.Subscribe()
	defer unsubscribe()

	for _, entry := range h.activity.All() {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(entry); err != nil {
			return
		}
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug("live log client connected", "request_id", requestIDFrom(c))
	defer h.logger.Debug("live log client disconnected", "request_id", requestIDFrom(c))

	for {
		select {
		case entry, ok := <-entries:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
