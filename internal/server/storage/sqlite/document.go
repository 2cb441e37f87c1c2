package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/labdesk/internal/server/storage"
)

// fieldPattern ограничивает имена полей в JSON путях
var fieldPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

func jsonPath(field string) (string, error) {
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	return "$." + field, nil
}

func isObject(data json.RawMessage) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(data, &obj) == nil && obj != nil
}

// CreateDocument stores a JSON object and writes the assigned ID into it
func (s *Storage) CreateDocument(ctx context.Context, collection, idField string, data json.RawMessage) (*storage.Document, error) {
	if !isObject(data) {
		return nil, storage.ErrInvalidDocument
	}
	path, err := jsonPath(idField)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().Unix()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (collection, data, created_at, updated_at)
		VALUES (?, json(?), ?, ?)
	`, collection, string(data), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get document id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = json_set(data, ?, ?) WHERE id = ?`,
		path, id, id,
	); err != nil {
		return nil, fmt.Errorf("failed to set document id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit document: %w", err)
	}

	return s.GetDocument(ctx, collection, id)
}

// GetDocument retrieves document by ID
func (s *Storage) GetDocument(ctx context.Context, collection string, id int64) (*storage.Document, error) {
	query := `
		SELECT id, collection, data, created_at, updated_at
		FROM documents
		WHERE collection = ? AND id = ?
	`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// buildFilter собирает условие по полям JSON; значения сравниваются как текст
func buildFilter(collection string, filter map[string]string) (string, []any, error) {
	where := []string{"collection = ?"}
	args := []any{collection}

	// Детерминированный порядок условий
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path, err := jsonPath(k)
		if err != nil {
			return "", nil, err
		}
		where = append(where, "CAST(json_extract(data, ?) AS TEXT) = ?")
		args = append(args, path, filter[k])
	}

	return strings.Join(where, " AND "), args, nil
}

// ListDocuments returns documents matching the filter, ordered by ID
func (s *Storage) ListDocuments(ctx context.Context, collection string, filter map[string]string) ([]*storage.Document, error) {
	where, args, err := buildFilter(collection, filter)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, collection, data, created_at, updated_at
		FROM documents
		WHERE ` + where + `
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*storage.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// PatchDocument merges patch into the stored object
func (s *Storage) PatchDocument(ctx context.Context, collection string, id int64, patch json.RawMessage) (*storage.Document, error) {
	if !isObject(patch) {
		return nil, storage.ErrInvalidDocument
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET data = json_patch(data, json(?)), updated_at = ?
		WHERE collection = ? AND id = ?
	`, string(patch), time.Now().Unix(), collection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to patch document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return nil, storage.ErrDocumentNotFound
	}

	return s.GetDocument(ctx, collection, id)
}

// DeleteDocument deletes document by ID
func (s *Storage) DeleteDocument(ctx context.Context, collection string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrDocumentNotFound
	}

	return nil
}

// DeleteDocuments deletes every document matching the filter
func (s *Storage) DeleteDocuments(ctx context.Context, collection string, filter map[string]string) (int64, error) {
	where, args, err := buildFilter(collection, filter)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}

	return res.RowsAffected()
}

// DeleteCascade удаляет документ и зависимые документы в одной транзакции
func (s *Storage) DeleteCascade(ctx context.Context, collection string, id int64, refField string, dependents []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrDocumentNotFound
	}

	filter := map[string]string{refField: strconv.FormatInt(id, 10)}
	for _, dependent := range dependents {
		where, args, err := buildFilter(dependent, filter)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE `+where, args...); err != nil {
			return fmt.Errorf("failed to delete %s: %w", dependent, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*storage.Document, error) {
	doc := &storage.Document{}
	var data string
	var createdAt, updatedAt int64

	if err := row.Scan(&doc.ID, &doc.Collection, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	doc.Data = json.RawMessage(data)
	doc.CreatedAt = time.Unix(createdAt, 0)
	doc.UpdatedAt = time.Unix(updatedAt, 0)

	return doc, nil
}
