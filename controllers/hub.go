package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/terra-dine/terra-ordering/models"
)

// Hub fans order and table events out to WebSocket subscribers. Clients
// join a cartId room; events carry the cartId they belong to and are only
// delivered to matching rooms (a client with no cartId receives everything,
// which keeps ad hoc debugging easy).
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn   *websocket.Conn
	cartID string
	send   chan []byte
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

var defaultHub = NewHub()

// GetHub returns the process-wide hub used by the controllers
func GetHub() *Hub {
	return defaultHub
}

// Broadcast delivers the event to every subscriber of its cartId room.
// Slow clients are skipped rather than blocking the sender.
func (h *Hub) Broadcast(event models.StatusEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: failed to encode event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.cartID != "" && event.CartID != "" && client.cartID != event.CartID {
			continue
		}
		select {
		case client.send <- data:
		default:
			log.Printf("hub: dropping event for slow client in room %q", client.cartID)
		}
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The development backend accepts any origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleOrderEvents handles GET /ws/orders - upgrades the connection and
// subscribes it to the cartId room from the query string
func HandleOrderEvents(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("hub: upgrade failed: %v", err)
			return
		}

		client := &wsClient{
			conn:   conn,
			cartID: c.Query("cartId"),
			send:   make(chan []byte, 16),
		}
		hub.register(client)

		// Writer pump
		go func() {
			for data := range client.send {
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					break
				}
			}
			conn.Close()
		}()

		// Reader pump: we only care about the connection closing
		go func() {
			defer hub.unregister(client)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
