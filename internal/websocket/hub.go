// Package websocket carries the per-connection pipeline: audio chunks in,
// question lists, paced images and telemetry snapshots out.
package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/echocanvas/echocanvas/server/domain/repositories"
	"github.com/echocanvas/echocanvas/server/internal/catalog"
	"github.com/echocanvas/echocanvas/server/internal/config"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Capacity of the generation and display queues.
	queueCapacity = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StoreFactory builds a fresh session store for each new connection.
type StoreFactory func() repositories.SessionStore

// Hub maintains the set of active clients and the collaborators every
// connection shares.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	catalog  *catalog.Catalog
	cfg      *config.Config
	metrics  repositories.MetricsRecorder
	costs    repositories.CostTracker
	sessions repositories.SessionRepository
	newStore StoreFactory

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(
	cat *catalog.Catalog,
	cfg *config.Config,
	metrics repositories.MetricsRecorder,
	costs repositories.CostTracker,
	sessions repositories.SessionRepository,
	newStore StoreFactory,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		catalog:    cat,
		cfg:        cfg,
		metrics:    metrics,
		costs:      costs,
		sessions:   sessions,
		newStore:   newStore,
		logger:     logger,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("clientID", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))
		}
	}
}

// ClientCount reports the number of active connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// HandleWebSocket handles websocket requests from the peer. The connection
// starts with the server-default models and environment credentials; the
// client reconfigures it with config messages.
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client, err := newClient(hub, conn, uuid.NewString(), logger)
	if err != nil {
		logger.Error("Failed to initialize connection pipeline", zap.Error(err))
		conn.WriteMessage(websocket.CloseMessage, []byte{})
		conn.Close()
		return err
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines. The wait group covers the worker and pacer so the read
	// pump can hold unregistration until both are done.
	client.wg.Add(2)
	go client.writePump()
	go client.worker()
	go client.pacer()
	go client.readPump()

	client.sendMessage(statusMessage{
		Type:    "status",
		Message: "Connected. Session: " + client.store.Name(),
	})
	client.sendMessage(questionsListMessage{Type: "questions_list", Questions: []string{}})

	return nil
}
