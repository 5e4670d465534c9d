// Package wsx is the live WebSocket broadcast hub: every onPose,
// onRoute, onInstruction, onOffRoute, and onSensorHealth event from a
// session is marshaled to JSON and fanned out to connected viewers.
// It follows the standard gorilla/websocket hub idiom (a single
// registrar goroutine owning the client set, fed by register/
// unregister/broadcast channels) -- the shape web/server.go expects
// from a NewHub/serveWs pair that is absent from the retrieved
// teacher sources, so it is reconstructed here from gorilla's
// documented pattern rather than adapted from a missing file.
package wsx

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	clientSendBuf  = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one connected viewer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the set of connected clients and fans out broadcast
// messages to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

// NewHub constructs an idle hub; call Run in its own goroutine to
// start servicing it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run drains registration and broadcast events until ctx-free
// shutdown via process exit -- mirrors the teacher's UDP accept loop
// shape (a single for-select owning all mutable state).
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Broadcast enqueues msg for delivery to every connected client. It
// never blocks the caller on a slow hub; when the broadcast queue is
// full, msg itself is dropped rather than stalling the session loop
// that calls it.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("wsx: broadcast queue full, dropping message")
	}
}

// ServeWs upgrades an HTTP request to a WebSocket connection and
// registers the resulting client with hub.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsx: upgrade failed: %v", err)
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, clientSendBuf)}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump discards inbound traffic (this hub is publish-only) but
// must run so pong handling and close detection work, per
// gorilla/websocket's documented client lifecycle.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump serializes all writes to the connection on one goroutine,
// as gorilla/websocket requires, and sends periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
