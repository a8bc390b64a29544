// Package chat carries the realtime side of conversations: a room-based
// websocket hub and a change-stream watcher that feeds persisted messages
// into the rooms.
package chat

import (
	"encoding/json"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"

	"sofilmy/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxInboundSize = 512
)

// Event is the envelope every room socket receives.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type roomMessage struct {
	room    string
	payload []byte
}

// Client is one websocket subscriber bound to a single room.
type Client struct {
	hub  *Hub
	room string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to clients grouped by room (chat id). All membership
// changes go through the register/unregister channels so the rooms map is
// only ever touched by the run loop.
type Hub struct {
	rooms      map[string]map[*Client]bool
	broadcast  chan roomMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan roomMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for room, clients := range h.rooms {
				for client := range clients {
					_ = client.conn.WriteControl(
						websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
						time.Now().Add(2*time.Second),
					)
					close(client.send)
					metrics.ChatClientsConnected.Dec()
				}
				delete(h.rooms, room)
			}
			h.logger.Debug("chat hub stopped, all clients disconnected")
			return
		case client := <-h.register:
			clients := h.rooms[client.room]
			if clients == nil {
				clients = make(map[*Client]bool)
				h.rooms[client.room] = clients
			}
			clients[client] = true
			metrics.ChatClientsConnected.Inc()
			h.logger.Debug("chat client connected",
				slog.String("room", client.room),
				slog.Int("roomClients", len(clients)),
			)
		case client := <-h.unregister:
			if clients, ok := h.rooms[client.room]; ok {
				if _, member := clients[client]; member {
					delete(clients, client)
					close(client.send)
					metrics.ChatClientsConnected.Dec()
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
					h.logger.Debug("chat client disconnected", slog.String("room", client.room))
				}
			}
		case msg := <-h.broadcast:
			for client := range h.rooms[msg.room] {
				select {
				case client.send <- msg.payload:
				default:
					// Slow client: drop it rather than stall the room.
					close(client.send)
					delete(h.rooms[msg.room], client)
					metrics.ChatClientsConnected.Dec()
				}
			}
		}
	}
}

// Close signals the hub to stop and disconnect every client.
func (h *Hub) Close() {
	close(h.done)
}

// Broadcast sends a typed JSON event to every client in the room. The send
// is non-blocking; if the hub's queue is full the event is skipped.
func (h *Hub) Broadcast(room, eventType string, data any) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("chat event marshal failed", slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- roomMessage{room: room, payload: payload}:
	default:
	}
}

// Join registers the connection in a room and starts its pumps. The
// connection is owned by the client from this point on. Joining a stopped
// hub closes the connection instead of blocking on the run loop.
func (h *Hub) Join(room string, conn *websocket.Conn) {
	client := &Client{
		hub:  h,
		room: room,
		conn: conn,
		send: make(chan []byte, 64),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump keeps the connection's read side alive for pongs. Messages are
// posted over HTTP, so inbound frames are drained and discarded.
func (c *Client) readPump() {
	defer func() {
		// A stopped hub no longer drains unregister; its run loop already
		// closed every client on the way out.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
