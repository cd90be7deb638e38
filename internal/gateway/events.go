package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/flemzord/scrumroll/internal/journal"
)

// Event types streamed on /ws/events.
const (
	EventJobStarted  = "job_started"
	EventJobFinished = "job_finished"
)

// Event is one job lifecycle notification.
type Event struct {
	Type    string    `json:"type"`
	Job     string    `json:"job"`
	Trigger string    `json:"trigger"`
	Time    time.Time `json:"time"`

	// Run carries the finished run's journal record, counts included.
	// Nil on job_started.
	Run *journal.Run `json:"run,omitempty"`
}

// subscriberBuffer is the per-connection event backlog. A subscriber that
// falls further behind starts losing events rather than blocking publishers.
const subscriberBuffer = 16

// EventHub broadcasts job lifecycle events to WebSocket subscribers.
type EventHub struct {
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

// NewEventHub creates an EventHub.
func NewEventHub(logger *slog.Logger) *EventHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHub{
		logger: logger,
		subs:   make(map[chan Event]struct{}),
	}
}

// Publish delivers an event to every subscriber without blocking. Slow
// subscribers lose events.
func (h *EventHub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.logger.Debug("event dropped for slow subscriber", "type", e.Type, "job", e.Job)
		}
	}
}

// subscribe registers a new subscriber channel, or returns nil after Close.
func (h *EventHub) subscribe() chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	ch := make(chan Event, subscriberBuffer)
	h.subs[ch] = struct{}{}
	return ch
}

func (h *EventHub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, ch)
}

// Close disconnects all subscribers. Publish becomes a no-op.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		close(ch)
	}
	h.subs = make(map[chan Event]struct{})
}

// ServeHTTP upgrades the request to a WebSocket and streams events until
// the client disconnects or the hub closes.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close(websocket.StatusInternalError, "unexpected close")
	}()

	ch := h.subscribe()
	if ch == nil {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.unsubscribe(ch)

	// The stream is write-only; CloseRead surfaces client disconnects
	// through the returned context.
	ctx := conn.CloseRead(r.Context())

	h.logger.Debug("event subscriber connected", "remote_addr", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "client disconnected")
			return
		case e, ok := <-ch:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				h.logger.Error("event marshal failed", "error", err)
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}
