package handlers

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/linac-qa/backend/internal/metrics"
	"github.com/linac-qa/backend/pkg/logger"
)

// Event is one broadcast message to connected dashboards.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// eventConn is the slice of *websocket.Conn the hub needs. Websocket
// connections do not tolerate concurrent writers, so every write goes
// through the per-client mutex below.
type eventConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type hubClient struct {
	conn    eventConn
	writeMu sync.Mutex
}

// Hub fans events out to every connected websocket client. Clients are
// passive listeners; anything they send other than close is ignored.
type Hub struct {
	mu      sync.RWMutex
	clients map[eventConn]*hubClient
}

func NewHub() *Hub {
	return &Hub{clients: make(map[eventConn]*hubClient)}
}

func (h *Hub) subscribe(conn eventConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = &hubClient{conn: conn}
	metrics.EventClients.Inc()
}

func (h *Hub) unsubscribe(conn eventConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		metrics.EventClients.Dec()
	}
}

// Broadcast sends an event to every client. Write failures drop the client.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	clients := make([]*hubClient, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.writeMu.Lock()
		err := client.conn.WriteJSON(event)
		client.writeMu.Unlock()
		if err != nil {
			logger.Debug("Event write failed, dropping client", zap.Error(err))
			h.unsubscribe(client.conn)
			client.conn.Close()
		}
	}
}

type EventsHandler struct {
	hub *Hub
}

func NewEventsHandler(hub *Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// HandleConnection registers the client and blocks until it disconnects.
func (h *EventsHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("Event client connected")
	h.hub.subscribe(c)

	defer func() {
		h.hub.unsubscribe(c)
		c.Close()
		logger.Info("Event client disconnected")
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
