package websocket

import (
	"context"

	"github.com/gorilla/websocket"

	"oddservices/pkg/logger"
)

// Client is one attached feed connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 8),
	}
}

// Hub fans the latest collection snapshot out to every attached client.
// Clients attaching mid-stream are replayed the most recent snapshot so the
// feed always starts with the current state. All client bookkeeping happens
// on the run goroutine.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{} // closed when the run loop exits
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 8),
		done:       make(chan struct{}),
	}
}

// Start runs the hub's main loop in a goroutine until ctx is done.
func (h *Hub) Start(ctx context.Context) {
	go func() {
		var last []byte
		for {
			select {
			case client := <-h.register:
				h.clients[client] = true
				if last != nil {
					client.send <- last
				}
				logger.Debug("feed client attached, %d total", len(h.clients))

			case client := <-h.unregister:
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					close(client.send)
				}
				logger.Debug("feed client detached, %d total", len(h.clients))

			case message := <-h.broadcast:
				last = message
				for client := range h.clients {
					select {
					case client.send <- message:
					default:
						// Slow consumer; drop it rather than block the feed.
						delete(h.clients, client)
						close(client.send)
					}
				}

			case <-ctx.Done():
				close(h.done)
				for client := range h.clients {
					delete(h.clients, client)
					close(client.send)
				}
				return
			}
		}
	}()
}

// Broadcast queues a snapshot for delivery to every attached client. After
// the hub has shut down the snapshot is dropped instead of blocking.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// ReadPump drains the connection until the peer goes away, then detaches.
// The feed is one-way; incoming frames are discarded.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("feed read error: %v", err)
			}
			return
		}
	}
}

// WritePump forwards queued snapshots to the connection.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("feed write error: %v", err)
			return
		}
	}
}
