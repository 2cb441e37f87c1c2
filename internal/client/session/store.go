// Package session holds the console's bearer credential and answers identity
// questions about it.
//
// Reads never fail: a missing slot, an unavailable storage or a token that
// cannot be decoded all resolve to "no credential" / "no identity".
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/labdesk/internal/client/storage"
)

// Store is the session object passed to every component that issues
// authenticated calls. A Store with nil storage behaves as a context without
// persistent storage: nothing is stored and every read is empty.
type Store struct {
	storage storage.CredentialStorage
}

// NewStore creates a session store over the given credential slot
func NewStore(credentials storage.CredentialStorage) *Store {
	return &Store{storage: credentials}
}

// RawToken returns the stored credential verbatim or "" when there is none
func (s *Store) RawToken(ctx context.Context) string {
	if s == nil || s.storage == nil {
		return ""
	}

	token, err := s.storage.GetCredential(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrCredentialNotFound) {
			// Хранилище недоступно: считаем что credential нет
			slog.DebugContext(ctx, "credential storage read failed", slog.Any("error", err))
		}
		return ""
	}

	return token
}

// Identity returns the decoded claims of the stored credential.
// ok is false when no credential is stored or it cannot be decoded.
func (s *Store) Identity(ctx context.Context) (Claims, bool) {
	return ParseClaims(s.RawToken(ctx))
}

// Claims returns the decoded claims or the zero Claims
func (s *Store) Claims(ctx context.Context) Claims {
	claims, _ := s.Identity(ctx)
	return claims
}

// Subject returns the caller's username or ""
func (s *Store) Subject(ctx context.Context) string {
	return s.Claims(ctx).Subject
}

// AuthorizationHeader returns the value of the Authorization header for the
// current credential, or "" when requests must go out unauthenticated
func (s *Store) AuthorizationHeader(ctx context.Context) string {
	token := s.RawToken(ctx)
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

// SetCredential persists the credential, replacing any previous one.
// Every request issued after this call carries the new credential.
func (s *Store) SetCredential(ctx context.Context, token string) error {
	if s == nil || s.storage == nil {
		return storage.ErrStorageUnavailable
	}

	if err := s.storage.SaveCredential(ctx, token); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// ClearCredential removes the stored credential; later requests carry no
// Authorization header
func (s *Store) ClearCredential(ctx context.Context) error {
	if s == nil || s.storage == nil {
		return nil
	}

	if err := s.storage.DeleteCredential(ctx); err != nil && !errors.Is(err, storage.ErrCredentialNotFound) {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	return nil
}
