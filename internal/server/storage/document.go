package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Document - запись коллекции: JSON объект с присвоенным сервером ID
type Document struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Collection string
	Data       json.RawMessage
	ID         int64
}

// DocumentStorage defines interface for schemaless resource persistence
// (projects, tasks, team members, budgets, publications, equipment...)
type DocumentStorage interface {
	// CreateDocument stores a JSON object and writes the assigned ID
	// into the object under idField
	CreateDocument(ctx context.Context, collection, idField string, data json.RawMessage) (*Document, error)

	// GetDocument retrieves document by ID
	// Returns ErrDocumentNotFound if document doesn't exist
	GetDocument(ctx context.Context, collection string, id int64) (*Document, error)

	// ListDocuments returns documents whose top-level fields equal the filter
	// values (compared as text), ordered by ID
	ListDocuments(ctx context.Context, collection string, filter map[string]string) ([]*Document, error)

	// PatchDocument merges patch into the document (RFC 7396 merge patch)
	// Returns ErrDocumentNotFound if document doesn't exist
	PatchDocument(ctx context.Context, collection string, id int64, patch json.RawMessage) (*Document, error)

	// DeleteDocument deletes document by ID
	// Returns ErrDocumentNotFound if document doesn't exist
	DeleteDocument(ctx context.Context, collection string, id int64) error

	// DeleteDocuments deletes every document matching the filter
	DeleteDocuments(ctx context.Context, collection string, filter map[string]string) (int64, error)

	// DeleteCascade deletes the document and every document of the dependent
	// collections whose refField equals its ID, all in one transaction.
	// Returns ErrDocumentNotFound if document doesn't exist
	DeleteCascade(ctx context.Context, collection string, id int64, refField string, dependents []string) error
}
