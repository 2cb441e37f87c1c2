package storage

import (
	"context"
	"io"

	"github.com/iudanet/labdesk/internal/models"
)

// BackupStorage defines interface for database snapshots
type BackupStorage interface {
	// CreateBackup writes a consistent snapshot of the database
	CreateBackup(ctx context.Context) (*models.Backup, error)

	// ListBackups returns snapshots, newest first
	ListBackups(ctx context.Context) ([]models.Backup, error)

	// OpenBackup opens snapshot for reading
	// Returns ErrBackupNotFound or ErrInvalidBackupName
	OpenBackup(ctx context.Context, fileName string) (io.ReadCloser, int64, error)

	// RestoreBackup replaces database contents with the snapshot
	RestoreBackup(ctx context.Context, fileName string) error
}
