package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/clearbrook/screend/internal/events"
)

// sseKeepaliveInterval is how often keepalive comments are sent to prevent
// connection timeouts.
const sseKeepaliveInterval = 15 * time.Second

// sseEvent is one session event on its way to connected observers. Kind
// names the lane it arrived on (state, response, ephemeral).
type sseEvent struct {
	Kind events.ChannelKind
	Data []byte
}

// sseClient is a single connected observer of one session.
type sseClient struct {
	sessionID string
	ch        chan *sseEvent
}

// sseHub fans session events out to SSE observers. Observers are scoped to
// a single session; there is no cross-session feed and no replay, since a
// reconnecting observer reloads authoritative state first.
type sseHub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

// broadcast sends an event to every observer of the channel's session.
func (h *sseHub) broadcast(ch events.Channel, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event for SSE broadcast", "subject", ch.Subject(), "error", err)
		return
	}
	evt := &sseEvent{Kind: ch.Kind, Data: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.sessionID != ch.SessionID {
			continue
		}
		select {
		case c.ch <- evt:
		default:
			// Drop if the observer is slow; never block the writer.
		}
	}
}

// subscribe registers an observer of one session. Call unsubscribe when done.
func (h *sseHub) subscribe(sessionID string) *sseClient {
	c := &sseClient{sessionID: sessionID, ch: make(chan *sseEvent, 64)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// handleSessionStream handles GET /v1/sessions/{id}/stream (SSE endpoint).
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	sessionID := r.PathValue("id")

	client := s.sseHub.subscribe(sessionID)
	defer s.sseHub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-client.ch:
			fmt.Fprintf(w, "event:%s\n", evt.Kind)
			fmt.Fprintf(w, "data:%s\n\n", evt.Data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}
