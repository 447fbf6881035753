package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event types
const (
	EventSessionStarted = "session_started"
	EventSessionEnded   = "session_ended"
	EventSessionUpdated = "session_updated"
	EventOrderUpdate    = "order_update"
	EventBillUpdate     = "bill_update"
	EventFloorSnapshot  = "floor_snapshot"
)

const (
	writeWait = 5 * time.Second
	// sendBuffer adalah jumlah pesan yang boleh antre per layar sebelum layar itu dilepas.
	sendBuffer = 32
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	conn   *websocket.Conn
	screen string
	send   chan []byte
}

// Hub menampung semua layar yang terhubung (kasir, display lantai) untuk broadcast.
// Setiap layar punya goroutine penulis sendiri, jadi Broadcast tidak pernah menunggu jaringan.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
	log     logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		log:     log,
	}
}

// Register -> menambahkan connection dengan nama screen dan menjalankan penulisnya
func (h *Hub) Register(conn *websocket.Conn, screen string) {
	c := &client{conn: conn, screen: screen, send: make(chan []byte, sendBuffer)}

	h.mutex.Lock()
	h.clients[conn] = c
	h.mutex.Unlock()

	go h.writePump(c)
}

// Unregister -> melepaskan connection; penulisnya yang menutup conn
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if c, ok := h.clients[conn]; ok {
		h.removeLocked(c)
	}
}

// Clients returns the number of connected screens.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Broadcast queues one event for every screen. A screen whose queue is full is dropped.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("hub: marshal failed")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.log.WithField("screen", c.screen).Warn("hub: screen too slow, dropping client")
			h.removeLocked(c)
		}
	}
}

// removeLocked must be called with h.mutex held.
func (h *Hub) removeLocked(c *client) {
	if current, ok := h.clients[c.conn]; !ok || current != c {
		return
	}
	delete(h.clients, c.conn)
	close(c.send)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.WithError(err).WithField("screen", c.screen).Warn("hub: dropping client")
			h.mutex.Lock()
			h.removeLocked(c)
			h.mutex.Unlock()
			return
		}
	}
}
