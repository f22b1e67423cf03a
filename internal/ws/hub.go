package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const broadcastBuffer = 256

// Event is the envelope pushed to every connected dashboard client.
type Event struct {
	Type      string      `json:"type"`
	BaseIDs   []uuid.UUID `json:"base_ids,omitempty"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Subscriber is the base scope of one connection.
type Subscriber struct {
	AllBases bool
	BaseID   *uuid.UUID
}

// Sees reports whether an event touching bases may be sent to s.
func (s Subscriber) Sees(bases []uuid.UUID) bool {
	if s.AllBases {
		return true
	}
	if s.BaseID == nil {
		return false
	}
	for _, id := range bases {
		if id == *s.BaseID {
			return true
		}
	}
	return false
}

type registration struct {
	conn       *websocket.Conn
	subscriber Subscriber
}

type outbound struct {
	bases []uuid.UUID
	data  []byte
}

type Hub struct {
	clients    map[*websocket.Conn]Subscriber
	register   chan registration
	unregister chan *websocket.Conn
	broadcast  chan outbound
	done       chan struct{}
	mutex      sync.Mutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*websocket.Conn]Subscriber),
		register:   make(chan registration),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan outbound, broadcastBuffer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Add registers conn with its scope. It returns false once the hub has
// stopped, in which case the caller should drop the connection.
func (h *Hub) Add(conn *websocket.Conn, sub Subscriber) bool {
	select {
	case h.register <- registration{conn: conn, subscriber: sub}:
		return true
	case <-h.done:
		return false
	}
}

// Remove unregisters conn. After the hub has stopped it returns at once;
// Run has already closed every connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Publish queues an event for the clients that can see any of bases. It
// never blocks; when the buffer is full the event is dropped.
func (h *Hub) Publish(eventType string, bases []uuid.UUID, payload interface{}) {
	msg, err := json.Marshal(Event{Type: eventType, BaseIDs: bases, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		h.logger.Warn("failed to encode ws event", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- outbound{bases: bases, data: msg}:
	default:
		h.logger.Warn("ws broadcast buffer full, dropping event", zap.String("type", eventType))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Run serves register, unregister and broadcast until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return

		case r := <-h.register:
			h.mutex.Lock()
			h.clients[r.conn] = r.subscriber
			h.mutex.Unlock()
			h.logger.Debug("ws client connected")

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn, sub := range h.clients {
				if !sub.Sees(message.bases) {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, message.data); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
