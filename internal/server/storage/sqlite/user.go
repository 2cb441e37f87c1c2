package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/labdesk/internal/models"
	"github.com/iudanet/labdesk/internal/server/storage"
)

// CreateUser creates a new user in the storage and assigns user.UserID
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, full_name, email, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.FullName,
		user.Email,
		string(user.Role),
		user.CreatedAt.Unix(),
	)
	if err != nil {
		// Проверяем на duplicate username
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	user.UserID = id

	return nil
}

// GetUserByUsername retrieves user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, full_name, email, role, created_at
		FROM users
		WHERE username = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, full_name, email, role, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, userID))
}

func (s *Storage) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var role string
	var createdAt int64

	err := row.Scan(
		&user.UserID,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&user.Email,
		&role,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = models.Role(role)
	user.CreatedAt = time.Unix(createdAt, 0)

	return user, nil
}
