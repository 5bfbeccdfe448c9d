package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/salesops/stackranker/internal/store"
	"github.com/salesops/stackranker/pkg/logger"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// LiveHandler streams each new snapshot to connected WebSocket clients.
type LiveHandler struct {
	store    *store.Store
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewLiveHandler creates a new live feed handler.
func NewLiveHandler(s *store.Store, log *logger.Logger) *LiveHandler {
	return &LiveHandler{
		store:  s,
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Snapshot data carries no credentials; any dashboard origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the connection and pushes the current snapshot followed by
// every replacement until the client disconnects.
// GET /api/live
func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	snapshots, cancel := h.store.Subscribe()
	defer cancel()

	// Discard client frames; their close frame terminates the reader.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if snap := h.store.Snapshot(); snap != nil {
		if err := h.write(conn, snap); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case snap := <-snapshots:
			if err := h.write(conn, snap); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *LiveHandler) write(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(v); err != nil {
		h.logger.WithError(err).Debug("WebSocket write failed")
		return err
	}
	return nil
}
