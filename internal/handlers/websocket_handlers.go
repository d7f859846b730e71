package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type WebSocketHandler struct {
	logger           *slog.Logger
	websocketManager *Manager
}

func NewWebSocketHandler(logger *slog.Logger, websocketManager *Manager) *WebSocketHandler {
	return &WebSocketHandler{
		logger:           logger,
		websocketManager: websocketManager,
	}
}

func (h *WebSocketHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws/events", h.HandleConnection)
}

// HandleConnection upgrades the request and streams bridge events until the
// client disconnects.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.websocketManager.Upgrade(w, r)
	if err != nil {
		h.logger.Error("Error upgrading connection", "error", err)
		return
	}

	h.logger.Info("New WebSocket connection", "remote", r.RemoteAddr)
	h.websocketManager.AddSubscriber(conn)

	for {
		_, _, readErr := conn.ReadMessage()
		if readErr != nil {
			h.logger.Info("WebSocket connection closed", "remote", r.RemoteAddr, "error", readErr)
			h.websocketManager.RemoveSubscriber(conn)
			conn.Close()
			break
		}
	}
}
