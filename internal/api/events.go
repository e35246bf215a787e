package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleStreamEvents streams bridge events as server-sent events until the
// client goes away or the bridge stops.
func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Disable write timeout for long-lived SSE connections.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Error("set write deadline for SSE", "error", err)
	}

	broker := s.controller.Broker()
	ch, unsub := broker.Subscribe()
	defer unsub()
	defer trackStream(transportSSE)()
	s.logger.Debug("event stream opened", "transport", transportSSE, "subscribers", broker.Subscribers())

	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)
	if canFlush {
		flusher.Flush()
	}

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				_ = writeSSEEvent(w, "done", "stream complete")
				if canFlush {
					flusher.Flush()
				}
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				s.logger.Error("encode event", "error", err)
				continue
			}
			if err := writeSSEEvent(w, e.Type, string(data)); err != nil {
				return
			}
			if canFlush {
				flusher.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

// handleEventsWebSocket streams bridge events as JSON text frames.
func (s *Server) handleEventsWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}

	broker := s.controller.Broker()
	ch, unsub := broker.Subscribe()
	defer unsub()
	defer trackStream(transportWebSocket)()
	s.logger.Debug("event stream opened", "transport", transportWebSocket, "subscribers", broker.Subscribers())

	// The reader only handles control frames; it ends when the client
	// closes the connection.
	closed := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("websocket read", "error", err)
				}
				return
			}
		}
	}()
	defer func() {
		conn.Close()
		<-closed
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream complete"),
					time.Now().Add(wsWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(e); err != nil {
				s.logger.Debug("websocket write", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// writeSSEEvent writes a named SSE event. Multi-line data is split so that
// each segment gets its own "data:" prefix.
func writeSSEEvent(w http.ResponseWriter, eventType, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return err
	}
	for seg := range strings.SplitSeq(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", seg); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}
