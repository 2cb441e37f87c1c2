// Package push реализует STOMP брокер dev backend'а поверх WebSocket.
// Поддерживается минимум, нужный консоли: CONNECT, SUBSCRIBE, UNSUBSCRIBE,
// SEND, DISCONNECT с receipt; рассылка без подтверждений и буферизации.
package push

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/iudanet/labdesk/pkg/api"
)

// Subprotocols - версии STOMP, согласуемые при WebSocket upgrade
var Subprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

// Hub принимает WebSocket соединения и рассылает сообщения подписчикам
type Hub struct {
	logger   *slog.Logger
	sessions map[*session]struct{}
	mu       sync.RWMutex
	closed   bool
}

// NewHub создает новый hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:   logger,
		sessions: make(map[*session]struct{}),
	}
}

// ServeHTTP обрабатывает GET /ws
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: Subprotocols,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := newSession(websocket.NetConn(ctx, ws, websocket.MessageText), h.logger)
	if !h.add(s) {
		_ = ws.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.remove(s)

	h.logger.DebugContext(ctx, "push client connected", slog.String("remote_addr", r.RemoteAddr))

	if err := s.serve(ctx, h); err != nil {
		h.logger.DebugContext(ctx, "push session ended", slog.Any("error", err))
	}
}

// Publish рассылает уведомление подписчикам /topic/notifications
func (h *Hub) Publish(ctx context.Context, n api.Notification) {
	body, err := json.Marshal(n)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode notification", slog.Any("error", err))
		return
	}
	h.Broadcast(ctx, api.NotificationsTopic, "application/json", body)
}

// Broadcast отправляет тело всем подписчикам destination.
// Сессии, в которые не удалось записать, закрываются.
func (h *Hub) Broadcast(ctx context.Context, destination, contentType string, body []byte) {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	messageID := uuid.NewString()
	delivered := 0
	for _, s := range targets {
		ok, err := s.deliver(destination, messageID, contentType, body)
		if err != nil {
			h.logger.WarnContext(ctx, "dropping push session", slog.Any("error", err))
			s.close()
			continue
		}
		if ok {
			delivered++
		}
	}

	h.logger.DebugContext(ctx, "push message broadcast",
		slog.String("destination", destination),
		slog.Int("subscribers", delivered))
}

// Subscribers возвращает число сессий, подписанных на destination
func (h *Hub) Subscribers(destination string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for s := range h.sessions {
		if s.subscribed(destination) {
			count++
		}
	}
	return count
}

// Close закрывает все сессии; новые соединения после этого отклоняются
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	sessions := h.sessions
	h.sessions = make(map[*session]struct{})
	h.mu.Unlock()

	for s := range sessions {
		s.close()
	}
}

func (h *Hub) add(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s] = struct{}{}
	return true
}

func (h *Hub) remove(s *session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
	s.close()
}
