package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Local tool, any origin
	},
}

// ClientMessage is what a websocket client may send. Plain text frames are
// treated as console lines.
type ClientMessage struct {
	Action  string `json:"action"`            // "command", "button", "pot"
	Command string `json:"command,omitempty"` // Console token
	Button  string `json:"button,omitempty"`  // "stop" or "calib"
	Pressed bool   `json:"pressed,omitempty"`
	Value   int    `json:"value,omitempty"` // Potentiometer raw
}

// Session is one websocket client
type Session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *Session) writeJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return s.conn.WriteJSON(v)
}

// Hub fans status and console output out to every connected client and
// forwards client input to the control loop
type Hub struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}

	ctx    context.Context
	submit func(context.Context, event) bool
}

func NewHub(ctx context.Context, submit func(context.Context, event) bool) *Hub {
	return &Hub{
		sessions: make(map[*Session]struct{}),
		ctx:      ctx,
		submit:   submit,
	}
}

// Broadcast sends v to every client, dropping clients that fail
func (h *Hub) Broadcast(v interface{}) {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		if err := s.writeJSON(v); err != nil {
			slog.Warn("Dropping websocket client", "remote_addr", s.conn.RemoteAddr(), "error", err)
			h.remove(s)
		}
	}
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	h.mu.Unlock()
	if ok {
		_ = s.conn.Close()
	}
}

// ServeHTTP upgrades the request and reads client input until it closes
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	s := &Session{conn: conn}
	h.add(s)
	slog.Info("Session started", "remote_addr", conn.RemoteAddr())
	defer func() {
		h.remove(s)
		slog.Info("Session ended", "remote_addr", conn.RemoteAddr())
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			return
		}

		ev, ok := parseClientMessage(message)
		if !ok {
			slog.Warn("Failed to parse message", "message", string(message))
			continue
		}
		h.submit(h.ctx, ev)
	}
}

// parseClientMessage accepts either a JSON ClientMessage or a bare token
func parseClientMessage(message []byte) (event, bool) {
	text := strings.TrimSpace(string(message))
	if text == "" {
		return event{}, false
	}
	if !strings.HasPrefix(text, "{") {
		return event{command: text, pot: -1}, true
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return event{}, false
	}

	switch msg.Action {
	case "command":
		if msg.Command == "" {
			return event{}, false
		}
		return event{command: msg.Command, pot: -1}, true
	case "button":
		if msg.Button != "stop" && msg.Button != "calib" {
			return event{}, false
		}
		return event{button: msg.Button, pressed: msg.Pressed, pot: -1}, true
	case "pot":
		if msg.Value < 0 || msg.Value > 4095 {
			return event{}, false
		}
		return event{pot: msg.Value}, true
	}
	return event{}, false
}
