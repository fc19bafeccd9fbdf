package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/CoderRaushan/whatsapp-web-clone/internal/domain"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/logger"
)

const writeTimeout = 5 * time.Second

// Hub tracks connected real-time viewers and broadcasts domain events to
// them. Delivery is fire-and-forget: a viewer that connects late misses
// earlier events, and a viewer that cannot keep up is dropped.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex

	// Conversation the viewer joined. Broadcast is currently global; the
	// membership only scopes what the frontend renders.
	conversationID string
}

// clientFrame is the JSON protocol for viewer-to-server messages.
type clientFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// HandleWS upgrades the request and serves the viewer until it disconnects.
func (h *Hub) HandleWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{conn: conn}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	logger.Infof("Viewer connected (%d active)", count)

	go h.readLoop(cl)

	return nil
}

func (h *Hub) readLoop(cl *client) {
	defer h.remove(cl)

	for {
		var frame clientFrame
		if err := cl.conn.ReadJSON(&frame); err != nil {
			return
		}

		if frame.Type == "join_conversation" {
			cl.mu.Lock()
			cl.conversationID = frame.ConversationID
			cl.mu.Unlock()
			logger.Debugf("Viewer joined conversation %s", frame.ConversationID)
		}
	}
}

// Publish broadcasts each event in order. Safe to call with a nil or
// partial slice; reconciliation never waits on delivery.
func (h *Hub) Publish(events []domain.Event) {
	for _, evt := range events {
		h.Broadcast(evt)
	}
}

// Broadcast sends one event to every connected viewer. Writers that miss
// the deadline are disconnected rather than blocking the rest.
func (h *Hub) Broadcast(evt domain.Event) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		targets = append(targets, cl)
	}
	h.mu.RUnlock()

	for _, cl := range targets {
		cl.mu.Lock()
		cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := cl.conn.WriteJSON(evt)
		cl.mu.Unlock()

		if err != nil {
			logger.Warnf("Dropping slow viewer: %v", err)
			h.remove(cl)
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	if ok {
		delete(h.clients, cl)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		cl.conn.Close()
		logger.Infof("Viewer disconnected (%d active)", count)
	}
}

// Close disconnects every viewer, typically during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, cl := range clients {
		cl.conn.Close()
	}
}
