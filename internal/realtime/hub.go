package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/observability"
)

// Client is one live dashboard session on the notification stream.
type Client struct {
	ID     string
	UserID uuid.UUID
	Conn   *WebSocketConn
	Send   chan []byte
}

type Hub struct {
	clients    map[string]*Client
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	log        logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// BroadcastJSON pushes a payload to every connected session.
func (h *Hub) BroadcastJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Error("broadcast payload marshal failed", logger.Error(err))
		return
	}
	h.broadcast <- b
}

// SendToUser delivers a payload to every session of one user. A session with
// a full send buffer is skipped rather than blocked on.
func (h *Hub) SendToUser(userID uuid.UUID, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.log.Error("message marshal failed", logger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.UserID == userID {
			select {
			case client.Send <- payload:
			default:
			}
		}
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			observability.WebsocketClients.Inc()
			h.log.Info("stream client connected",
				logger.String("client_id", client.ID),
				logger.String("user_id", client.UserID.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(old.Send)
				observability.WebsocketClients.Dec()
				h.log.Info("stream client disconnected", logger.String("client_id", client.ID))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			// Full write lock: a stuck client gets evicted here.
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, id)
					observability.WebsocketClients.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}
