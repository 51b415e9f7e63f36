package status

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/realtime-ai/talk-assist/pkg/metrics"
)

// HubConfig holds configuration for the status hub.
type HubConfig struct {
	// Addr is the listen address (e.g., "127.0.0.1:8088").
	Addr string

	// Path is the websocket path (e.g., "/status").
	Path string

	// History is how many recent events a new client receives on connect.
	History int

	// SendBuffer is the per-client queue length. Events beyond it are dropped.
	SendBuffer int

	// WriteTimeout bounds one websocket write.
	WriteTimeout time.Duration
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		Addr:         "127.0.0.1:8088",
		Path:         "/status",
		History:      20,
		SendBuffer:   32,
		WriteTimeout: 5 * time.Second,
	}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Event
}

// Hub broadcasts status events to websocket clients and serves /metrics
// and /healthz next to them.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	mu      sync.Mutex
	clients map[string]*client
	history []Event
	closed  bool

	httpServer *http.Server
}

// NewHub creates a status hub.
func NewHub(config HubConfig) *Hub {
	def := DefaultHubConfig()
	if config.Path == "" {
		config.Path = def.Path
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = def.SendBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}

	h := &Hub{
		config:  config,
		mux:     http.NewServeMux(),
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // local status page
			},
		},
	}
	h.mux.HandleFunc(config.Path, h.handleWebSocket)
	h.mux.Handle("/metrics", promhttp.Handler())
	h.mux.HandleFunc("/healthz", h.handleHealth)
	return h
}

// Handler returns the hub's HTTP handler.
func (h *Hub) Handler() http.Handler {
	return h.mux
}

// Publish implements Sink. Slow clients lose events rather than stall the caller.
func (h *Hub) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	if h.config.History > 0 {
		h.history = append(h.history, ev)
		if len(h.history) > h.config.History {
			h.history = h.history[len(h.history)-h.config.History:]
		}
	}

	for _, c := range h.clients {
		select {
		case c.send <- ev:
		default:
			metrics.StatusDropped.Inc()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve listens on the configured address until ctx is done, then shuts
// the server down.
func (h *Hub) Serve(ctx context.Context) error {
	h.httpServer = &http.Server{
		Addr:    h.config.Addr,
		Handler: h.mux,
	}

	log.Printf("[StatusHub] starting on %s%s", h.config.Addr, h.config.Path)

	errCh := make(chan error, 1)
	go func() {
		if err := h.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.Close(shutdownCtx)
}

// Close disconnects every client and stops the HTTP server if it is running.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
	metrics.StatusClients.Set(0)
	h.mu.Unlock()

	if h.httpServer != nil {
		return h.httpServer.Shutdown(ctx)
	}
	return nil
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": h.ClientCount(),
	})
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[StatusHub] WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Event, h.config.SendBuffer+h.config.History),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	for _, ev := range h.history {
		c.send <- ev
	}
	h.clients[c.id] = c
	metrics.StatusClients.Set(float64(len(h.clients)))
	h.mu.Unlock()

	log.Printf("[StatusHub] client %s connected from %s", c.id, r.RemoteAddr)

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop discards client messages and unregisters the client when the
// connection closes.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		log.Printf("[StatusHub] client %s disconnected", c.id)
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
		if err := c.conn.WriteJSON(ev); err != nil {
			log.Printf("[StatusHub] write to client %s failed: %v", c.id, err)
			c.conn.Close()
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	metrics.StatusClients.Set(float64(len(h.clients)))
}

var _ Sink = (*Hub)(nil)
