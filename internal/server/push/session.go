package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/go-stomp/stomp/v3/frame"
)

const serverName = "labdesk-dev/1.0"

// session - одно STOMP соединение клиента
type session struct {
	conn   net.Conn
	reader *frame.Reader
	writer *frame.Writer
	logger *slog.Logger
	subs   map[string]string // subscription id -> destination
	hub    *Hub

	writeMu   sync.Mutex
	subsMu    sync.RWMutex
	closeOnce sync.Once
}

func newSession(conn net.Conn, logger *slog.Logger) *session {
	return &session{
		conn:   conn,
		reader: frame.NewReader(conn),
		writer: frame.NewWriter(conn),
		logger: logger,
		subs:   make(map[string]string),
	}
}

// serve выполняет handshake и обрабатывает кадры клиента до DISCONNECT
// или обрыва соединения
func (s *session) serve(ctx context.Context, hub *Hub) error {
	s.hub = hub

	if err := s.handshake(); err != nil {
		return err
	}

	for {
		f, err := s.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}
		// heart-beat
		if f == nil {
			continue
		}

		done, err := s.handle(ctx, f)
		if err != nil {
			s.sendError(err.Error(), f)
			return err
		}
		if done {
			return nil
		}
	}
}

func (s *session) handshake() error {
	f, err := s.reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CONNECT frame: %w", err)
	}
	if f == nil || (f.Command != frame.CONNECT && f.Command != frame.STOMP) {
		s.sendError("expected CONNECT frame", f)
		return fmt.Errorf("unexpected first frame")
	}

	version := negotiateVersion(f.Header.Get(frame.AcceptVersion))
	if version == "" {
		s.sendError("unsupported protocol version", f)
		return fmt.Errorf("unsupported accept-version %q", f.Header.Get(frame.AcceptVersion))
	}

	return s.write(frame.New(frame.CONNECTED,
		frame.Version, version,
		frame.HeartBeat, "0,0",
		frame.Server, serverName,
	))
}

// negotiateVersion выбирает наибольшую общую версию; без заголовка - 1.0
func negotiateVersion(accept string) string {
	if accept == "" {
		return "1.0"
	}
	best := ""
	for _, v := range strings.Split(accept, ",") {
		switch strings.TrimSpace(v) {
		case "1.2":
			return "1.2"
		case "1.1":
			best = "1.1"
		case "1.0":
			if best == "" {
				best = "1.0"
			}
		}
	}
	return best
}

// handle обрабатывает один кадр; done=true означает конец сессии
func (s *session) handle(ctx context.Context, f *frame.Frame) (bool, error) {
	switch f.Command {
	case frame.SUBSCRIBE:
		id := f.Header.Get(frame.Id)
		dest := f.Header.Get(frame.Destination)
		if id == "" || dest == "" {
			return false, fmt.Errorf("SUBSCRIBE requires id and destination")
		}
		s.subsMu.Lock()
		s.subs[id] = dest
		s.subsMu.Unlock()
		s.logger.DebugContext(ctx, "push subscription added",
			slog.String("id", id),
			slog.String("destination", dest))

	case frame.UNSUBSCRIBE:
		s.subsMu.Lock()
		delete(s.subs, f.Header.Get(frame.Id))
		s.subsMu.Unlock()

	case frame.SEND:
		dest := f.Header.Get(frame.Destination)
		if dest == "" {
			return false, fmt.Errorf("SEND requires destination")
		}
		s.hub.Broadcast(ctx, dest, f.Header.Get(frame.ContentType), f.Body)

	case frame.DISCONNECT:
		if err := s.sendReceipt(f); err != nil {
			return true, err
		}
		return true, nil

	default:
		return false, fmt.Errorf("unsupported command %s", f.Command)
	}

	return false, s.sendReceipt(f)
}

func (s *session) sendReceipt(f *frame.Frame) error {
	receipt := f.Header.Get(frame.Receipt)
	if receipt == "" {
		return nil
	}
	return s.write(frame.New(frame.RECEIPT, frame.ReceiptId, receipt))
}

func (s *session) sendError(message string, cause *frame.Frame) {
	errFrame := frame.New(frame.ERROR, frame.Message, message)
	if cause != nil {
		if receipt := cause.Header.Get(frame.Receipt); receipt != "" {
			errFrame.Header.Add(frame.ReceiptId, receipt)
		}
	}
	if err := s.write(errFrame); err != nil {
		s.logger.Debug("failed to send ERROR frame", slog.Any("error", err))
	}
}

func (s *session) subscribed(destination string) bool {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, dest := range s.subs {
		if dest == destination {
			return true
		}
	}
	return false
}

// deliver отправляет MESSAGE во все подписки сессии на destination.
// ok=false, если подписок нет.
func (s *session) deliver(destination, messageID, contentType string, body []byte) (bool, error) {
	s.subsMu.RLock()
	var ids []string
	for id, dest := range s.subs {
		if dest == destination {
			ids = append(ids, id)
		}
	}
	s.subsMu.RUnlock()

	for _, id := range ids {
		msg := frame.New(frame.MESSAGE,
			frame.Destination, destination,
			frame.Subscription, id,
			frame.MessageId, messageID,
		)
		if contentType != "" {
			msg.Header.Add(frame.ContentType, contentType)
		}
		msg.Body = body

		if err := s.write(msg); err != nil {
			return false, err
		}
	}

	return len(ids) > 0, nil
}

// write сериализует запись кадров из читающей горутины и Broadcast
func (s *session) write(f *frame.Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.writer.Write(f); err != nil {
		return fmt.Errorf("failed to write %s frame: %w", f.Command, err)
	}
	return nil
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}
