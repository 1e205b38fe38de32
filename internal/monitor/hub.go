// ABOUTME: Websocket monitor feed
// ABOUTME: Broadcasts session level/status/completion events to connected monitor UIs
package monitor

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tapmix-audio/tapmix-go/internal/session"
)

// Event is one JSON message pushed to monitor clients.
type Event struct {
	Type            string  `json:"type"`
	Level           float64 `json:"level,omitempty"`
	Status          string  `json:"status,omitempty"`
	Error           string  `json:"error,omitempty"`
	Path            string  `json:"path,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	SizeBytes       int64   `json:"sizeBytes,omitempty"`
}

// eventQueueSize bounds how many events can sit between the session's
// callbacks and the delivery goroutine before new ones are dropped.
const eventQueueSize = 256

// Hub accepts websocket connections on /ws and fans session events out to
// them. It is strictly a consumer of the session's notification callbacks.
// Delivery runs on the hub's own goroutine: Broadcast only enqueues, so the
// session's real-time callbacks never wait on a slow monitor client.
type Hub struct {
	addr     string
	upgrader websocket.Upgrader
	server   *http.Server
	events   chan Event
	quit     chan struct{}
	quitOnce sync.Once

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewHub creates a hub serving on addr (e.g. "127.0.0.1:8940").
func NewHub(addr string) *Hub {
	h := &Hub{
		addr:     addr,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		events:   make(chan Event, eventQueueSize),
		quit:     make(chan struct{}),
		conns:    make(map[*websocket.Conn]bool),
	}
	go h.pump()
	return h
}

// pump drains the event queue and delivers to the connected clients.
func (h *Hub) pump() {
	for {
		select {
		case event := <-h.events:
			h.deliver(event)
		case <-h.quit:
			return
		}
	}
}

// Start begins serving websocket connections in the background.
func (h *Hub) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)

	h.server = &http.Server{Addr: h.addr, Handler: mux}
	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Monitor server error: %v", err)
		}
	}()

	log.Printf("Monitor feed listening on ws://%s/ws", h.addr)
	return nil
}

// HandleWS upgrades one HTTP request to a monitor connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Monitor upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	// Drain (and discard) client messages so pings keep flowing; the feed
	// is one-way.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	conn.Close()
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Broadcast enqueues an event for delivery. It never blocks: when the queue
// is full the event is dropped, keeping the calling callback thread safe.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.events <- event:
	default:
	}
}

// deliver sends an event to every connected client, dropping any that have
// gone away.
func (h *Hub) deliver(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// Callbacks returns a session callback set that forwards every notification
// into the feed, chaining to next so the application keeps its own handlers.
func (h *Hub) Callbacks(next session.Callbacks) session.Callbacks {
	return session.Callbacks{
		OnLevel: func(level float64) {
			h.Broadcast(Event{Type: "level", Level: level})
			if next.OnLevel != nil {
				next.OnLevel(level)
			}
		},
		OnStatus: func(status string) {
			h.Broadcast(Event{Type: "status", Status: status})
			if next.OnStatus != nil {
				next.OnStatus(status)
			}
		},
		OnComplete: func(result session.Result) {
			h.Broadcast(Event{
				Type:            "complete",
				Path:            result.Path,
				DurationSeconds: result.DurationSeconds,
				SizeBytes:       result.SizeBytes,
			})
			if next.OnComplete != nil {
				next.OnComplete(result)
			}
		},
		OnError: func(err error) {
			h.Broadcast(Event{Type: "error", Error: err.Error()})
			if next.OnError != nil {
				next.OnError(err)
			}
		},
	}
}

// Close disconnects all clients and stops the server.
func (h *Hub) Close() error {
	h.quitOnce.Do(func() { close(h.quit) })

	h.mu.Lock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
	h.mu.Unlock()

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return h.server.Shutdown(ctx)
	}
	return nil
}
