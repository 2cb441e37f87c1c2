package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/labdesk/internal/server/storage"
	"github.com/iudanet/labdesk/pkg/api"
)

// BackupHandler обрабатывает операции со снимками базы
type BackupHandler struct {
	responder
	backups   storage.BackupStorage
	publisher Publisher
}

// NewBackupHandler создает handler снимков
func NewBackupHandler(logger *slog.Logger, backups storage.BackupStorage, publisher Publisher) *BackupHandler {
	return &BackupHandler{
		responder: responder{logger: logger},
		backups:   backups,
		publisher: publisher,
	}
}

// List обрабатывает GET /api/backup/list
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.backups.ListBackups(r.Context())
	if err != nil {
		h.backupError(w, r, err)
		return
	}
	h.sendJSON(w, list, http.StatusOK)
}

// Create обрабатывает POST /api/backup
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	backup, err := h.backups.CreateBackup(ctx)
	if err != nil {
		h.backupError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "backup created", slog.String("file", backup.FileName))
	h.publish(r, "BACKUP_CREATED", "Backup created: "+backup.FileName)
	h.sendText(w, "Backup created: "+backup.FileName, http.StatusOK)
}

// Download обрабатывает GET /api/backup/download?fileName=
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.URL.Query().Get("fileName")
	if name == "" {
		h.sendError(w, "fileName is required", http.StatusBadRequest)
		return
	}

	rc, size, err := h.backups.OpenBackup(ctx, name)
	if err != nil {
		h.backupError(w, r, err)
		return
	}
	defer func() {
		if err := rc.Close(); err != nil {
			h.logger.WarnContext(ctx, "failed to close backup", slog.Any("error", err))
		}
	}()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(ctx, "backup download interrupted",
			slog.String("file", name),
			slog.Any("error", err))
	}
}

// Restore обрабатывает POST /api/backup/restore?fileName=
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.URL.Query().Get("fileName")
	if name == "" {
		h.sendError(w, "fileName is required", http.StatusBadRequest)
		return
	}

	if err := h.backups.RestoreBackup(ctx, name); err != nil {
		h.backupError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "backup restored", slog.String("file", name))
	h.publish(r, "BACKUP_RESTORED", "Database restored from "+name)
	h.sendText(w, "Database restored from "+name, http.StatusOK)
}

func (h *BackupHandler) publish(r *http.Request, kind, message string) {
	if h.publisher == nil {
		return
	}
	h.publisher.Publish(r.Context(), api.Notification{Type: kind, Message: message})
}

func (h *BackupHandler) backupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidBackupName):
		h.sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrBackupNotFound):
		h.sendError(w, "backup not found", http.StatusNotFound)
	default:
		h.logger.ErrorContext(r.Context(), "backup operation failed", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
	}
}
