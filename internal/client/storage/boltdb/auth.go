package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/labdesk/internal/client/storage"
)

// credentialKey is the fixed key of the credential slot
var credentialKey = []byte("accessToken")

// Compile-time check that Storage implements CredentialStorage
var _ storage.CredentialStorage = (*Storage)(nil)

// SaveCredential stores the bearer credential, overwriting any prior value
func (s *Storage) SaveCredential(ctx context.Context, token string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}

		if err := bucket.Put(credentialKey, []byte(token)); err != nil {
			return fmt.Errorf("failed to save credential: %w", err)
		}

		return nil
	})
}

// GetCredential retrieves the stored credential
func (s *Storage) GetCredential(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var token string

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}

		// Значение из bbolt валидно только внутри транзакции, поэтому копируем
		data := bucket.Get(credentialKey)
		if len(data) == 0 {
			return storage.ErrCredentialNotFound
		}
		token = string(data)

		return nil
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// DeleteCredential removes the stored credential (sign-out)
func (s *Storage) DeleteCredential(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}

		// Delete на отсутствующем ключе в bbolt не является ошибкой
		if err := bucket.Delete(credentialKey); err != nil {
			return fmt.Errorf("failed to delete credential: %w", err)
		}

		return nil
	})
}
