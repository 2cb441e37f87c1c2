package storage

import "errors"

// Common client storage errors
var (
	// ErrCredentialNotFound indicates that no credential is stored
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrStorageUnavailable indicates that there is no persistent storage to work with
	ErrStorageUnavailable = errors.New("credential storage is unavailable")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
