package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/labdesk/internal/models"
	"github.com/iudanet/labdesk/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func createTestUser(t *testing.T, ctx context.Context, s *Storage, username string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		PasswordHash: "hash",
		FullName:     "User " + username,
		Email:        username + "@example.com",
		Role:         role,
	}
	require.NoError(t, s.CreateUser(ctx, user))
	return user
}

func TestUserStorage_CreateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	tests := []struct {
		user *models.User
		name string
	}{
		{
			name: "create administrator",
			user: &models.User{
				Username:     "admin",
				PasswordHash: "$argon2id$hash1",
				FullName:     "Анна Администратор",
				Email:        "admin@example.com",
				Role:         models.RoleAdmin,
			},
		},
		{
			name: "create researcher",
			user: &models.User{
				Username:     "researcher",
				PasswordHash: "$argon2id$hash2",
				FullName:     "Роман Исследователь",
				Email:        "r@example.com",
				Role:         models.RoleResearcher,
			},
		},
	}

	var lastID int64
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateUser(ctx, tt.user)
			require.NoError(t, err)
			assert.Greater(t, tt.user.UserID, lastID, "IDs are assigned increasing")
			lastID = tt.user.UserID

			// Verify user was created
			retrieved, err := s.GetUserByID(ctx, tt.user.UserID)
			require.NoError(t, err)
			assert.Equal(t, tt.user.Username, retrieved.Username)
			assert.Equal(t, tt.user.PasswordHash, retrieved.PasswordHash)
			assert.Equal(t, tt.user.FullName, retrieved.FullName)
			assert.Equal(t, tt.user.Email, retrieved.Email)
			assert.Equal(t, tt.user.Role, retrieved.Role)
			assert.False(t, retrieved.CreatedAt.IsZero())
		})
	}
}

func TestUserStorage_CreateUser_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	createTestUser(t, ctx, s, "duplicate", models.RoleResearcher)

	err := s.CreateUser(ctx, &models.User{
		Username:     "duplicate",
		PasswordHash: "other",
		FullName:     "Other",
		Email:        "other@example.com",
		Role:         models.RoleAdmin,
	})
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestUserStorage_GetUserByUsername(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	created := createTestUser(t, ctx, s, "manager", models.RoleProjectManager)

	tests := []struct {
		wantError error
		name      string
		username  string
	}{
		{name: "existing user", username: "manager"},
		{name: "unknown user", username: "nobody", wantError: storage.ErrUserNotFound},
		{name: "case sensitive", username: "MANAGER", wantError: storage.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := s.GetUserByUsername(ctx, tt.username)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, created.UserID, user.UserID)
			assert.Equal(t, models.RoleProjectManager, user.Role)
		})
	}
}

func TestUserStorage_GetUserByID_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetUserByID(ctx, 404)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestStorage_Ping(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.Ping(context.Background()))
}
