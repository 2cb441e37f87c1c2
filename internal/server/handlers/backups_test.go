package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/labdesk/internal/models"
	"github.com/iudanet/labdesk/internal/server/storage"
	"github.com/iudanet/labdesk/internal/server/storage/sqlite"
)

// mockBackupStorage is a mock implementation of BackupStorage for testing
type mockBackupStorage struct {
	files map[string]string
	err   error
}

func (m *mockBackupStorage) CreateBackup(ctx context.Context) (*models.Backup, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Backup{FileName: "backup-20260301-120000-000.db", CreatedAt: "2026-03-01T12:00:00Z"}, nil
}

func (m *mockBackupStorage) ListBackups(ctx context.Context) ([]models.Backup, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Backup
	for name := range m.files {
		out = append(out, models.Backup{FileName: name})
	}
	return out, nil
}

func (m *mockBackupStorage) OpenBackup(ctx context.Context, fileName string) (io.ReadCloser, int64, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	data, ok := m.files[fileName]
	if !ok {
		return nil, 0, storage.ErrBackupNotFound
	}
	return io.NopCloser(strings.NewReader(data)), int64(len(data)), nil
}

func (m *mockBackupStorage) RestoreBackup(ctx context.Context, fileName string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.files[fileName]; !ok {
		return storage.ErrBackupNotFound
	}
	return nil
}

func newBackupMux(backups storage.BackupStorage, publisher Publisher) *http.ServeMux {
	h := NewBackupHandler(setupTestLogger(), backups, publisher)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/backup/list", h.List)
	mux.HandleFunc("POST /api/backup", h.Create)
	mux.HandleFunc("GET /api/backup/download", h.Download)
	mux.HandleFunc("POST /api/backup/restore", h.Restore)
	return mux
}

func TestBackupHandler_Mock(t *testing.T) {
	backups := &mockBackupStorage{files: map[string]string{"backup-a.db": "SQLite format 3"}}
	publisher := &recordingPublisher{}
	mux := newBackupMux(backups, publisher)

	serve := func(method, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(method, target, nil))
		return w
	}

	t.Run("create", func(t *testing.T) {
		w := serve(http.MethodPost, "/api/backup")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Backup created: backup-20260301-120000-000.db", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("download", func(t *testing.T) {
		w := serve(http.MethodGet, "/api/backup/download?fileName=backup-a.db")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="backup-a.db"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "15", w.Header().Get("Content-Length"))
		assert.Equal(t, "SQLite format 3", w.Body.String())
	})

	t.Run("download missing", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "/api/backup/download?fileName=backup-b.db").Code)
	})

	t.Run("restore", func(t *testing.T) {
		w := serve(http.MethodPost, "/api/backup/restore?fileName=backup-a.db")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Database restored from backup-a.db", w.Body.String())
	})

	t.Run("restore without name", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, serve(http.MethodPost, "/api/backup/restore").Code)
	})

	assert.Equal(t, []string{"BACKUP_CREATED", "BACKUP_RESTORED"}, publisher.types())
}

func TestBackupHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid name", storage.ErrInvalidBackupName, http.StatusBadRequest},
		{"not found", storage.ErrBackupNotFound, http.StatusNotFound},
		{"internal", errBoom, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newBackupMux(&mockBackupStorage{err: tt.err}, nil)

			for _, target := range []string{"/api/backup/list", "/api/backup/download?fileName=x.db"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
				assert.Equal(t, tt.wantStatus, w.Code, target)
			}

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/backup/restore?fileName=x.db", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestBackupHandler_SQLiteRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	backups, err := sqlite.NewBackups(store, filepath.Join(t.TempDir(), "backups"))
	require.NoError(t, err)
	mux := newBackupMux(backups, nil)
	ctx := context.Background()

	_, err = store.CreateDocument(ctx, Equipment.Collection, Equipment.IDField, json.RawMessage(`{"name":"Microscope"}`))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/backup", nil))
	require.Equal(t, http.StatusOK, w.Code)
	name := strings.TrimPrefix(w.Body.String(), "Backup created: ")

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/backup/list", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Backup
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, name, list[0].FileName)

	require.NoError(t, store.DeleteDocument(ctx, Equipment.Collection, 1))

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/backup/restore?fileName="+name, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc, err := store.GetDocument(ctx, Equipment.Collection, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Microscope","equipmentId":1}`, string(doc.Data))

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/backup/download?fileName=server.db", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
