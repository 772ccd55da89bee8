package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"go.uber.org/zap"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	defaultBuffer = 256
)

// Message is the envelope sent to websocket clients.
type Message struct {
	Type         string       `json:"type"`
	SimulationID string       `json:"simulation_id"`
	Update       types.Update `json:"update"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans simulation updates out to websocket subscribers. Each client has
// a bounded queue; a client that falls behind is disconnected so publishing
// never blocks the simulation.
type Hub struct {
	clients  map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	buffer   int
	mu       sync.RWMutex
	logger   *logger.Logger
}

// NewHub creates a hub whose clients queue up to buffer messages.
func NewHub(buffer int, log *logger.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		buffer: buffer,
		mu:     sync.RWMutex{},
		logger: log.Named("hub"),
	}
}

// Publish queues update for every subscriber of simulationID.
func (h *Hub) Publish(simulationID string, update types.Update) {
	message := Message{Type: "update", SimulationID: simulationID, Update: update}
	if update.IsError() {
		message.Type = "error"
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to encode update", zap.String("simulation_id", simulationID), zap.Error(err))

		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[simulationID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("Dropping slow websocket client", zap.String("simulation_id", simulationID))
			delete(h.clients[simulationID], c)
			c.close()
		}
	}
}

// Observer returns a simulation observer publishing to simulationID.
func (h *Hub) Observer(simulationID string) func(types.Update) {
	return func(update types.Update) {
		h.Publish(simulationID, update)
	}
}

// Subscribers returns the number of clients of simulationID.
func (h *Hub) Subscribers(simulationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[simulationID])
}

// Serve upgrades the request and streams updates of simulationID until the
// client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, simulationID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))

		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.buffer)}
	h.register(simulationID, c)

	go h.write(c)
	h.read(simulationID, c)
}

// CloseSimulation disconnects every subscriber of simulationID.
func (h *Hub) CloseSimulation(simulationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[simulationID] {
		c.close()
	}

	delete(h.clients, simulationID)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, clients := range h.clients {
		for c := range clients {
			c.close()
		}

		delete(h.clients, id)
	}
}

func (h *Hub) register(simulationID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[simulationID] == nil {
		h.clients[simulationID] = make(map[*client]struct{})
	}

	h.clients[simulationID][c] = struct{}{}
}

func (h *Hub) unregister(simulationID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[simulationID]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			c.close()
		}

		if len(clients) == 0 {
			delete(h.clients, simulationID)
		}
	}
}

// read discards client frames; it only exists to notice disconnects.
func (h *Hub) read(simulationID string, c *client) {
	defer func() {
		h.unregister(simulationID, c)
		c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) write(c *client) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
