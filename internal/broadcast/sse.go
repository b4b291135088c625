// Package broadcast pushes accepted lighting changes to observers: SSE
// subscribers and, optionally, a NATS subject.
package broadcast

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/luxd/internal/events"
	"git.home.luguber.info/inful/luxd/internal/lighting"
)

// lightingFrame is the push payload.
type lightingFrame struct {
	Lighting lighting.Vector `json:"lighting"`
}

// Hub manages SSE clients for lighting-change broadcasts. Delivery is
// at-most-once: no backlog, no replay for late subscribers, no retry. A
// client whose buffer is full simply misses that frame.
type Hub struct {
	current func() lighting.Vector

	mu      sync.RWMutex
	nextID  int
	clients map[int]*sseClient
	closed  bool

	// ClientCountChanged, if set, is called with the new client count
	// after connects and disconnects. Used for the metrics gauge.
	ClientCountChanged func(n int)
}

type sseClient struct {
	id   int
	ch   chan []byte
	done chan struct{}
}

// NewHub creates a Hub. current supplies the vector pushed to a
// subscriber on connect and on explicit state requests.
func NewHub(current func() lighting.Vector) *Hub {
	return &Hub{current: current, clients: map[int]*sseClient{}}
}

// ServeHTTP implements the SSE endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "broadcast shutting down", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &sseClient{ch: make(chan []byte, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	count := len(h.clients)
	h.mu.Unlock()
	h.notifyCount(count)

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		slog.Debug("sse write", "error", err)
		h.removeClient(client.id)
		return
	}
	// Initial push of the current vector.
	if frame, err := json.Marshal(lightingFrame{Lighting: h.current()}); err == nil {
		bw.WriteString("data: ")
		bw.Write(frame)
		bw.WriteString("\n\n")
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err == nil {
				bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("sse ping write", "error", err)
				h.removeClient(client.id)
				return
			}
		case frame := <-client.ch:
			if _, err := bw.WriteString("data: "); err == nil {
				bw.Write(frame)
				bw.WriteString("\n\n")
				bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("sse broadcast write", "error", err)
				h.removeClient(client.id)
				return
			}
		}
	}
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if ok {
		close(c.done)
		h.notifyCount(count)
	}
}

func (h *Hub) notifyCount(n int) {
	if h.ClientCountChanged != nil {
		h.ClientCountChanged(n)
	}
}

// Broadcast pushes a vector to all connected clients.
func (h *Hub) Broadcast(v lighting.Vector) {
	frame, err := json.Marshal(lightingFrame{Lighting: v})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.ch <- frame:
		default:
			// Slow client; at-most-once means it misses this frame.
		}
	}
}

// PushCurrent broadcasts the current vector, serving explicit "give me
// current state" requests.
func (h *Hub) PushCurrent() {
	h.Broadcast(h.current())
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run forwards accepted lighting changes from the bus until ctx is
// canceled or the bus closes.
func (h *Hub) Run(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := events.Subscribe[events.LightingChanged](bus, 64)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			h.Broadcast(evt.New)
		}
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	toClose := make([]*sseClient, 0, len(h.clients))
	for _, c := range h.clients {
		toClose = append(toClose, c)
	}
	h.clients = map[int]*sseClient{}
	h.mu.Unlock()

	for _, c := range toClose {
		close(c.done)
	}
	h.notifyCount(0)
}
