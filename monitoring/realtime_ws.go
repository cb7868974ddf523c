package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType identifies a monitor event.
type MessageType string

const (
	PredictionEvent MessageType = "prediction"
	ServiceStatus   MessageType = "service_status"
	Heartbeat       MessageType = "heartbeat"
)

// Message is the envelope every monitor event is broadcast in.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	ID        string          `json:"id"`
}

// PredictionMessage mirrors one served prediction for dashboard consumers.
type PredictionMessage struct {
	Label                int       `json:"label"`
	ProbabilityBenign    float64   `json:"probability_benign"`
	ProbabilityMalignant float64   `json:"probability_malignant"`
	Timestamp            time.Time `json:"timestamp"`
}

// StatusMessage reports the serving process state.
type StatusMessage struct {
	Status      string    `json:"status"`
	ModelLoaded bool      `json:"model_loaded"`
	Timestamp   time.Time `json:"timestamp"`
}

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	clientID string
}

// Hub fans monitor events out to connected WebSocket clients.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	ctx        context.Context
	cancel     context.CancelFunc
	log        *zap.Logger
}

// NewHub creates a stopped hub. Call Start in a goroutine before serving.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Start runs the hub loop until Stop is called.
func (h *Hub) Start() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("monitor client connected", zap.String("client", c.clientID), zap.Int("total", total))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("monitor client disconnected", zap.String("client", c.clientID), zap.Int("total", total))

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	h.cancel()
}

// HandleWebSocket upgrades an HTTP request into a monitor stream.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn:     conn,
		send:     make(chan []byte, 256),
		clientID: fmt.Sprintf("client_%d", time.Now().UnixNano()),
	}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		// Hub already stopped, nobody will ever drain register.
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

// SendPrediction broadcasts one served prediction.
func (h *Hub) SendPrediction(event PredictionMessage) {
	h.send(PredictionEvent, event)
}

// SendStatus broadcasts the current serving state.
func (h *Hub) SendStatus(status StatusMessage) {
	h.send(ServiceStatus, status)
}

// SendHeartbeat broadcasts a liveness ping.
func (h *Hub) SendHeartbeat() {
	h.send(Heartbeat, map[string]string{"status": "alive"})
}

func (h *Hub) send(kind MessageType, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.log.Warn("failed to marshal monitor event", zap.Error(err))
		return
	}
	msg := Message{
		Type:      kind,
		Timestamp: time.Now(),
		Data:      payload,
		ID:        fmt.Sprintf("msg_%d", time.Now().UnixNano()),
	}
	out, err := json.Marshal(msg)
	if err != nil {
		h.log.Warn("failed to marshal monitor message", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- out:
	default:
		h.log.Warn("monitor broadcast queue full, dropping message")
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so close handshakes are observed. The stream
// is one-directional, client messages are discarded.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
