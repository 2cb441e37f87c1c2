package storage

import (
	"context"
)

//go:generate moq -out credential_mock.go . CredentialStorage

// CredentialStorage defines the single persisted slot that holds the bearer
// credential on the client. It stores the token verbatim: no decoding, no
// verification, no expiry checks.
type CredentialStorage interface {
	// SaveCredential stores the token, overwriting any previous value
	SaveCredential(ctx context.Context, token string) error

	// GetCredential returns the stored token
	// Returns ErrCredentialNotFound if the slot is empty
	GetCredential(ctx context.Context) (string, error)

	// DeleteCredential empties the slot (sign-out)
	// Deleting an empty slot is not an error
	DeleteCredential(ctx context.Context) error
}
