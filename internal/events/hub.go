// Package events broadcasts task changes to connected admin dashboards over
// websockets. Delivery is best-effort: publishing never blocks a request
// handler, and clients that cannot keep up are dropped.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"taskboard/pkg/logger"
)

const (
	TypeTaskCreated   = "task_created"
	TypeTaskUpdated   = "task_updated"
	TypeTaskCompleted = "task_completed"
	TypeTaskDeleted   = "task_deleted"
)

// Event is one task change as seen by a dashboard.
type Event struct {
	Type   string    `json:"type"`
	TaskID int       `json:"task_id"`
	Actor  string    `json:"actor"`
	At     time.Time `json:"at"`
}

// wsConn is the slice of *websocket.Conn the broadcast loop touches.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Client struct {
	Conn wsConn
	mu   sync.Mutex
}

func (c *Client) write(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, message)
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the client set; call it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Conn.Close()
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				if err := client.write(message); err != nil {
					delete(h.clients, client)
					client.Conn.Close()
				}
			}
		}
	}
}

// Register adds a connection to the feed and blocks serving it until the
// connection drops.
func (h *Hub) Register(conn *websocket.Conn) {
	client := &Client{Conn: conn}
	h.register <- client
	defer func() { h.unregister <- client }()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish queues ev for broadcast; dropped if the feed is saturated.
func (h *Hub) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.ErrorLogger.Error("Error encoding event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		logger.ErrorLogger.Error("Event feed saturated, dropping event",
			zap.String("type", ev.Type), zap.Int("task_id", ev.TaskID))
	}
}
