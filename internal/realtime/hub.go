package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

const writeWait = 10 * time.Second

// pingPeriod is a variable so tests can shorten the keepalive interval.
var pingPeriod = 45 * time.Second

// Event represents a payload delivered to alert stream subscribers.
type Event struct {
	Event   string      `json:"event"`
	Alert   interface{} `json:"alert,omitempty"`
	AlertID string      `json:"alert_id,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans out alert lifecycle events to connected subscribers. All
// subscribers receive every event; the registry has no per-user channels.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub constructs an alert stream hub instance.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
	}
}

// Serve upgrades the HTTP connection to a WebSocket and registers the subscriber.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	server := websocket.Server{
		Handshake: func(config *websocket.Config, req *http.Request) error {
			config.Protocol = append(config.Protocol, "json")
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			cl := &client{
				conn: conn,
				send: make(chan Event, 16),
			}

			h.addClient(cl)
			defer h.removeClient(cl)

			go h.writeLoop(cl)
			h.readLoop(cl)
		},
	}

	server.ServeHTTP(w, r)
}

// Broadcast delivers an event to every connected subscriber.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- event:
		default:
			// Drop if buffer full to avoid blocking all clients.
		}
	}
}

func (h *Hub) addClient(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[cl] = struct{}{}
}

func (h *Hub) removeClient(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, cl)
	close(cl.send)
	_ = cl.conn.Close()
}

// writeLoop delivers buffered events and sends periodic keepalive pings.
// Subscribers stay connected for as long as the peer accepts writes; a dead
// peer fails the next deadline-bounded write and the loop exits.
func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-cl.send:
			if !ok {
				return
			}
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := websocket.JSON.Send(cl.conn, event); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := websocket.JSON.Send(cl.conn, Event{Event: "ping"}); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readLoop(cl *client) {
	defer cl.conn.Close()

	for {
		var payload interface{}
		if err := websocket.JSON.Receive(cl.conn, &payload); err != nil {
			break
		}
	}
}

// MarshalEvent converts an event payload into JSON bytes (utility for testing).
func MarshalEvent(event Event) ([]byte, error) {
	return json.Marshal(event)
}
