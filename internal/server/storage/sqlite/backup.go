package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/iudanet/labdesk/internal/models"
	"github.com/iudanet/labdesk/internal/server/storage"
)

// backupNamePattern - имена, которые выдает CreateBackup
var backupNamePattern = regexp.MustCompile(`^backup-\d{8}-\d{6}-\d{3}\.db$`)

const backupTimeLayout = "20060102-150405"

// restoredTables копируются из снимка при восстановлении
var restoredTables = []string{"users", "documents"}

// Backups управляет снимками базы в отдельной директории
type Backups struct {
	storage *Storage
	dir     string
	now     func() time.Time
}

var _ storage.BackupStorage = (*Backups)(nil)

// NewBackups создает менеджер снимков; директория создается при необходимости
func NewBackups(s *Storage, dir string) (*Backups, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}
	return &Backups{storage: s, dir: dir, now: time.Now}, nil
}

func (b *Backups) path(fileName string) (string, error) {
	if !backupNamePattern.MatchString(fileName) {
		return "", storage.ErrInvalidBackupName
	}
	return filepath.Join(b.dir, fileName), nil
}

func backupName(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("backup-%s-%03d.db", t.Format(backupTimeLayout), t.Nanosecond()/int(time.Millisecond))
}

// CreateBackup пишет согласованный снимок через VACUUM INTO
func (b *Backups) CreateBackup(ctx context.Context) (*models.Backup, error) {
	created := b.now()
	name := backupName(created)
	target := filepath.Join(b.dir, name)

	if _, err := os.Stat(target); err == nil {
		return nil, fmt.Errorf("backup %s already exists", name)
	}

	if _, err := b.storage.db.ExecContext(ctx, `VACUUM INTO ?`, target); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	return &models.Backup{
		FileName:  name,
		CreatedAt: created.UTC().Format(time.RFC3339),
	}, nil
}

// ListBackups возвращает снимки, новые первыми
func (b *Backups) ListBackups(ctx context.Context) ([]models.Backup, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup dir: %w", err)
	}

	backups := make([]models.Backup, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !backupNamePattern.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat backup %s: %w", e.Name(), err)
		}
		backups = append(backups, models.Backup{
			FileName:  e.Name(),
			CreatedAt: info.ModTime().UTC().Format(time.RFC3339),
		})
	}

	// Имена содержат время создания, поэтому сортировка по имени хронологическая
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].FileName > backups[j].FileName
	})

	return backups, nil
}

// OpenBackup открывает снимок для чтения
func (b *Backups) OpenBackup(ctx context.Context, fileName string) (io.ReadCloser, int64, error) {
	p, err := b.path(fileName)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, storage.ErrBackupNotFound
		}
		return nil, 0, fmt.Errorf("failed to open backup: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("failed to stat backup: %w", err)
	}

	return f, info.Size(), nil
}

// RestoreBackup заменяет содержимое таблиц данными снимка.
// ATTACH выполняется на выделенном соединении, копирование - в одной транзакции.
func (b *Backups) RestoreBackup(ctx context.Context, fileName string) (err error) {
	p, err := b.path(fileName)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(p); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return storage.ErrBackupNotFound
		}
		return fmt.Errorf("failed to stat backup: %w", statErr)
	}

	conn, err := b.storage.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE ? AS snapshot`, p); err != nil {
		return fmt.Errorf("failed to attach backup: %w", err)
	}
	defer func() {
		if _, detachErr := conn.ExecContext(context.WithoutCancel(ctx), `DETACH DATABASE snapshot`); detachErr != nil && err == nil {
			err = fmt.Errorf("failed to detach backup: %w", detachErr)
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin restore: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range restoredTables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM main.`+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO main.`+table+` SELECT * FROM snapshot.`+table); err != nil {
			return fmt.Errorf("failed to restore %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}

	return nil
}
