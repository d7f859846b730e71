package handlers

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/maps"

	"github.com/rebuslabs/tokenbridge/internal/entities"
)

// Manager owns the set of websocket subscribers and fans bridge events out to
// them. Publish is fire-and-forget: a slow or dead subscriber is dropped, it
// never affects the call that produced the event.
type Manager struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*websocket.Conn]bool
}

func NewWebSocketManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subscribers: make(map[*websocket.Conn]bool),
	}
}

func (m *Manager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return m.upgrader.Upgrade(w, r, nil)
}

func (m *Manager) AddSubscriber(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[conn] = true
}

func (m *Manager) RemoveSubscriber(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, conn)
}

// Publish sends the event to every connected subscriber.
func (m *Manager) Publish(event entities.BridgeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stale []*websocket.Conn
	for _, conn := range maps.Keys(m.subscribers) {
		if err := conn.WriteJSON(event); err != nil {
			m.logger.Warn("Dropping websocket subscriber", "error", err)
			stale = append(stale, conn)
		}
	}

	for _, conn := range stale {
		delete(m.subscribers, conn)
		conn.Close()
	}
}
