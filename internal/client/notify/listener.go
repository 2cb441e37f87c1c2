// Package notify подписывает консоль на push-уведомления платформы:
// STOMP 1.2 поверх WebSocket, топик /topic/notifications.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/go-stomp/stomp/v3"

	"github.com/iudanet/labdesk/pkg/api"
)

// Subprotocol - имя STOMP 1.2 подпротокола WebSocket
const Subprotocol = "v12.stomp"

// DefaultDialTimeout ограничивает установку соединения и STOMP handshake
const DefaultDialTimeout = 10 * time.Second

// ErrChannelClosed возвращается, когда сервер закрыл push канал
var ErrChannelClosed = errors.New("push channel closed")

// Handler получает каждое декодированное уведомление
type Handler func(ctx context.Context, n api.Notification)

// HeaderSource предоставляет заголовок Authorization текущей сессии
type HeaderSource interface {
	AuthorizationHeader(ctx context.Context) string
}

// Listener подключается к push каналу и передает уведомления обработчику.
// Без подтверждений, буферизации и переподключения.
type Listener struct {
	headers     HeaderSource
	logger      *slog.Logger
	url         string
	dialTimeout time.Duration
}

// NewListener создает listener для push адреса вида ws://host/ws
func NewListener(pushURL string, headers HeaderSource, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		url:         pushURL,
		headers:     headers,
		logger:      logger,
		dialTimeout: DefaultDialTimeout,
	}
}

// Listen блокируется до отмены ctx (возвращает nil) или обрыва соединения
func (l *Listener) Listen(ctx context.Context, handle Handler) error {
	conn, err := l.connect(ctx)
	if err != nil {
		return err
	}

	sub, err := conn.Subscribe(api.NotificationsTopic, stomp.AckAuto)
	if err != nil {
		_ = conn.MustDisconnect()
		return fmt.Errorf("failed to subscribe to %s: %w", api.NotificationsTopic, err)
	}

	l.logger.InfoContext(ctx, "subscribed to push channel",
		slog.String("url", l.url),
		slog.String("topic", api.NotificationsTopic))

	err = Consume(ctx, sub.C, handle, l.logger)
	_ = conn.MustDisconnect()

	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (l *Listener) connect(ctx context.Context) (*stomp.Conn, error) {
	var authHeader string
	if l.headers != nil {
		authHeader = l.headers.AuthorizationHeader(ctx)
	}

	dialCtx, cancel := context.WithTimeout(ctx, l.dialTimeout)
	defer cancel()

	opts := &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	}
	if authHeader != "" {
		opts.HTTPHeader = map[string][]string{"Authorization": {authHeader}}
	}

	ws, _, err := websocket.Dial(dialCtx, l.url, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to push channel %s: %w", l.url, err)
	}

	// Соединение живет до отмены ctx
	netConn := websocket.NetConn(ctx, ws, websocket.MessageText)

	stompOpts := []func(*stomp.Conn) error{
		stomp.ConnOpt.Host("/"),
		stomp.ConnOpt.HeartBeat(0, 0),
		stomp.ConnOpt.AcceptVersion(stomp.V12),
	}
	if authHeader != "" {
		stompOpts = append(stompOpts, stomp.ConnOpt.Header("Authorization", authHeader))
	}

	conn, err := stomp.Connect(netConn, stompOpts...)
	if err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("stomp handshake failed: %w", err)
	}

	return conn, nil
}

// Consume читает сообщения подписки до отмены ctx или закрытия канала.
// Недекодируемые тела логируются и пропускаются.
func Consume(ctx context.Context, messages <-chan *stomp.Message, handle Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ErrChannelClosed
			}
			if msg.Err != nil {
				return fmt.Errorf("%w: %w", ErrChannelClosed, msg.Err)
			}

			var n api.Notification
			if err := json.Unmarshal(msg.Body, &n); err != nil {
				logger.WarnContext(ctx, "skipping undecodable notification",
					slog.String("body", string(msg.Body)),
					slog.Any("error", err))
				continue
			}

			handle(ctx, n)
		}
	}
}
