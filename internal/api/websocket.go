package api

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// wsClient pumps messages between a websocket connection and a Session.
type wsClient struct {
	conn    *websocket.Conn
	session *Session
	done    func()
}

// AllowOrigins restricts websocket handshakes carrying an Origin header to
// the given origins. Browsers do not apply CORS to websockets, so the check
// happens here. With no origins configured every origin is accepted.
func (h *Handlers) AllowOrigins(origins ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.origins = append([]string(nil), origins...)
}

func (h *Handlers) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // not a browser
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.origins) == 0 {
		return true
	}
	for _, allowed := range h.origins {
		if strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// WebSocketHandler upgrades the request and runs a game session over it
func (h *Handlers) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if h.isClosing() {
		errorResponse(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "origin", r.Header.Get("Origin"), "error", err)
		return
	}

	session := NewSession(h.engine, h.sendBuffer, h.logger.With("transport", "websocket"))
	client := &wsClient{conn: conn, session: session}
	if !h.track(client) {
		conn.Close()
		return
	}
	h.logger.Debug("websocket connected", "session_id", session.ID(), "remote", r.RemoteAddr)

	go client.writePump()
	go client.readPump()
}

// Close disconnects every websocket client and waits for their sessions to
// leave the game. New handshakes are refused afterwards.
func (h *Handlers) Close() {
	h.mu.Lock()
	h.closing = true
	for c := range h.clients {
		c.session.Close()
		c.conn.Close()
	}
	h.mu.Unlock()

	h.wg.Wait()
}

func (h *Handlers) isClosing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closing
}

// track registers c and counts it in wg. It fails once Close has started.
func (h *Handlers) track(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	c.done = func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		h.wg.Done()
	}
	return true
}

// readPump feeds frames to the session. A frame may hold several
// newline-separated messages.
func (c *wsClient) readPump() {
	defer func() {
		c.session.Leave()
		c.session.Close()
		c.conn.Close()
		c.done()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.session.logger.Warn("websocket error", "error", err)
			}
			return
		}

		for _, line := range bytes.Split(message, []byte{'\n'}) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			if err := c.session.Handle(line); err != nil {
				c.session.logger.Error("game unavailable, closing connection", "error", err)
				return
			}
		}
	}
}

// writePump writes queued messages to the connection, batching whatever is
// waiting into one newline-separated frame.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.session.Outbound():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.session.Close()
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.session.Outbound())
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.session.Outbound())
			}

			if err := w.Close(); err != nil {
				c.session.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.session.Close()
				return
			}

		case <-c.session.Done():
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes messages that were queued before the session closed.
func (c *wsClient) flush() {
	for {
		select {
		case message := <-c.session.Outbound():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}
