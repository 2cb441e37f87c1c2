package handlers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/labdesk/internal/crypto"
	"github.com/iudanet/labdesk/internal/models"
	"github.com/iudanet/labdesk/internal/server/storage"
	"github.com/iudanet/labdesk/internal/server/storage/sqlite"
	"github.com/iudanet/labdesk/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

// дешевые параметры argon2id, чтобы тесты не тратили 64MB на хеш
var testHashParams = crypto.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}

var testJWTConfig = JWTConfig{
	Secret:   []byte("test-secret-key-that-is-long-enough!"),
	TokenTTL: time.Hour,
}

// mockUserStorage is a mock implementation of UserStorage for testing
type mockUserStorage struct {
	users       map[string]*models.User // username -> User
	createError error
	getError    error
	nextID      int64
}

func newMockUserStorage(users ...*models.User) *mockUserStorage {
	m := &mockUserStorage{users: make(map[string]*models.User)}
	for _, u := range users {
		m.nextID++
		u.UserID = m.nextID
		m.users[u.Username] = u
	}
	return m
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	if m.createError != nil {
		return m.createError
	}
	if _, exists := m.users[user.Username]; exists {
		return storage.ErrUserAlreadyExists
	}
	m.nextID++
	user.UserID = m.nextID
	m.users[user.Username] = user
	return nil
}

func (m *mockUserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	user, ok := m.users[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, user := range m.users {
		if user.UserID == userID {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// recordingPublisher запоминает опубликованные уведомления
type recordingPublisher struct {
	mu   sync.Mutex
	sent []api.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n api.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, n := range p.sent {
		out = append(out, n.Type)
	}
	return out
}

// setupTestStorage открывает SQLite во временной директории
func setupTestStorage(t *testing.T) *sqlite.Storage {
	t.Helper()

	s, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

var errBoom = errors.New("boom")
