package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrDocumentNotFound indicates that document was not found in the collection
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidDocument indicates that document body is not a JSON object
	ErrInvalidDocument = errors.New("document must be a JSON object")

	// ErrBackupNotFound indicates that backup file does not exist
	ErrBackupNotFound = errors.New("backup not found")

	// ErrInvalidBackupName indicates that backup file name is not acceptable
	ErrInvalidBackupName = errors.New("invalid backup file name")
)
