package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dwellwatch/internal/config"
	"dwellwatch/internal/logger"
)

const (
	broadcastBuffer = 256
	writeWait       = 5 * time.Second
)

type message struct {
	payload []byte
	session string
}

// subscription is one connected viewer. An empty session receives every session.
type subscription struct {
	conn    *websocket.Conn
	session string
}

// HubService fans live session status out to websocket viewers.
type HubService struct {
	clients    map[*websocket.Conn]string
	broadcast  chan message
	register   chan subscription
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(config *config.Config, logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]string),
		broadcast:  make(chan message, broadcastBuffer),
		register:   make(chan subscription),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *HubService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case sub := <-h.register:
			h.mutex.Lock()
			h.clients[sub.conn] = sub.session
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", total)

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for client, session := range h.clients {
				if session != "" && session != msg.session {
					continue
				}
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register subscribes a viewer to one session, or to all when session is empty.
func (h *HubService) Register(client *websocket.Conn, session string) {
	select {
	case h.register <- subscription{conn: client, session: session}:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

// Broadcast queues a status message. Messages are dropped rather than
// blocking the caller when viewers fall behind.
func (h *HubService) Broadcast(payload []byte, session string) {
	select {
	case h.broadcast <- message{payload: payload, session: session}:
	default:
		h.logger.Warning("Live status queue full, dropping update for session %s", session)
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
