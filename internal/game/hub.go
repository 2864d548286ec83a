package game

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

type Client struct {
	conn    *websocket.Conn
	account string
	mu      sync.Mutex
}

// Hub fans game events out to connected websocket subscribers.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 100),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("[WS] Client connected: %s (Total: %d)", client.account, len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.conn.Close()
				log.Printf("[WS] Client disconnected: %s (Total: %d)", client.account, len(h.clients))
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			jsonMessage, err := json.Marshal(ev)
			if err != nil {
				log.Printf("[WS] Marshal error: %v", err)
				continue
			}

			h.mu.RLock()
			for client := range h.clients {
				go client.send(jsonMessage) // Non-blocking send
			}
			h.mu.RUnlock()
		}
	}
}

// Notify implements Notifier; a full broadcast queue drops the event
// rather than stalling a settlement.
func (h *Hub) Notify(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
		log.Println("[WS] Broadcast channel full, dropping event")
	}
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) send(message []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		log.Printf("[WS] Write error for account %s: %v", c.account, err)
	}
}

// SendGameView pushes a one-off snapshot to a single client, used right
// after it connects.
func (c *Client) SendGameView(view *GameView) {
	if view == nil {
		return
	}
	data, err := json.Marshal(map[string]interface{}{
		"type": "game_view",
		"data": view,
	})
	if err != nil {
		log.Printf("[WS] Snapshot marshal error: %v", err)
		return
	}
	c.send(data)
}

func (h *Hub) RegisterClient(conn *websocket.Conn, account string) *Client {
	client := &Client{
		conn:    conn,
		account: account,
	}
	h.register <- client
	return client
}

func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mu.RLock()
	for client := range h.clients {
		if client.conn == conn {
			h.mu.RUnlock()
			h.unregister <- client
			return
		}
	}
	h.mu.RUnlock()
}
