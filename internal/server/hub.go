package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"StockLens/internal/metrics"
	"StockLens/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// envelope is the frame pushed to WebSocket clients.
type envelope struct {
	Type    string       `json:"type"`
	Symbol  string       `json:"symbol"`
	TS      time.Time    `json:"ts"`
	Initial bool         `json:"initial,omitempty"`
	Data    *model.Chart `json:"data"`
}

// Hub fans refreshed charts out to WebSocket clients. New clients first
// receive the latest chart of every symbol seen so far.
type Hub struct {
	metrics *metrics.Metrics

	mu      sync.RWMutex
	clients map[*client]bool
	latest  map[string]*model.Chart
}

// NewHub creates an empty hub.
func NewHub(m *metrics.Metrics) *Hub {
	if m == nil {
		m = metrics.NewUnregistered()
	}
	return &Hub{
		metrics: m,
		clients: make(map[*client]bool),
		latest:  make(map[string]*model.Chart),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastChart pushes chart to every client. Slow clients drop frames.
func (h *Hub) BroadcastChart(chart *model.Chart) {
	msg, err := json.Marshal(envelope{Type: "chart", Symbol: chart.Symbol, TS: time.Now().UTC(), Data: chart})
	if err != nil {
		log.Printf("[ERROR] marshal ws frame %s: %v", chart.Symbol, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[chart.Symbol] = chart
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("[WARN] ws client send buffer full, dropping %s", chart.Symbol)
		}
	}
}

// ServeWS upgrades the request and registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] ws upgrade error: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 32), hub: h}

	h.mu.Lock()
	h.clients[c] = true
	for sym, chart := range h.latest {
		msg, err := json.Marshal(envelope{Type: "chart", Symbol: sym, TS: chart.GeneratedAt, Initial: true, Data: chart})
		if err != nil {
			continue
		}
		select {
		case c.send <- msg:
		default:
		}
	}
	h.mu.Unlock()
	h.metrics.WSClients.Inc()
	log.Printf("[INFO] ws client connected from %s", r.RemoteAddr)

	go c.writePump()
	go c.readPump()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
		h.metrics.WSClients.Dec()
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		h.metrics.WSClients.Dec()
	}
}

// client is a single WebSocket peer.
type client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; clients do not send commands.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
		log.Println("[INFO] ws client disconnected")
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
