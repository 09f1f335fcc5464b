package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// CORS already restricts the frontend origin; the socket carries
		// only progress counters.
		return true
	},
}

// AuditHub pushes live counting progress to dashboards watching an audit.
// Handlers queue messages on the broadcast channel; a single pump goroutine
// performs every connection write, since gorilla/websocket allows at most
// one concurrent writer per connection.
type AuditHub struct {
	mu        sync.RWMutex
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
}

func NewAuditHub() *AuditHub {
	h := &AuditHub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 64),
	}
	go h.run()
	return h
}

type auditProgress struct {
	AuditID  string `json:"audit_id"`
	Counted  int    `json:"counted"`
	Expected int    `json:"expected"`
}

// run drains the broadcast queue and fans each message out to every client.
// It is the only goroutine that ever writes to a connection.
func (h *AuditHub) run() {
	for msg := range h.broadcast {
		h.mu.RLock()
		conns := make([]*websocket.Conn, 0, len(h.clients))
		for c := range h.clients {
			conns = append(conns, c)
		}
		h.mu.RUnlock()

		for _, c := range conns {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.mu.Lock()
				delete(h.clients, c)
				h.mu.Unlock()
				_ = c.Close()
			}
		}
	}
}

// Serve upgrades the request and parks the connection until the client
// hangs up. Clients only listen; inbound frames are drained and dropped.
func (h *AuditHub) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("audit hub upgrade: %v", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// BroadcastProgress queues a progress frame. Progress is advisory; when the
// queue is full the frame is dropped rather than blocking the count request.
func (h *AuditHub) BroadcastProgress(auditID string, counted, expected int) {
	msg, _ := json.Marshal(auditProgress{AuditID: auditID, Counted: counted, Expected: expected})
	select {
	case h.broadcast <- msg:
	default:
	}
}

func (h *AuditHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
