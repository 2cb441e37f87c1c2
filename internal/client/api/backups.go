package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/iudanet/labdesk/internal/models"
)

// ListBackups возвращает список резервных копий
func (c *Client) ListBackups(ctx context.Context) ([]models.Backup, error) {
	var backups []models.Backup
	if err := c.doRequest(ctx, http.MethodGet, "/backup/list", nil, nil, &backups); err != nil {
		return nil, fmt.Errorf("list backups request failed: %w", err)
	}
	return backups, nil
}

// CreateBackup запускает создание резервной копии.
// Сервер отвечает текстовым сообщением.
func (c *Client) CreateBackup(ctx context.Context) (string, error) {
	msg, err := c.doText(ctx, http.MethodPost, "/backup", nil)
	if err != nil {
		return "", fmt.Errorf("create backup request failed: %w", err)
	}
	return msg, nil
}

// DownloadBackup пишет содержимое резервной копии в w и возвращает число байт
func (c *Client) DownloadBackup(ctx context.Context, fileName string, w io.Writer) (int64, error) {
	query := url.Values{"fileName": {fileName}}
	n, err := c.doStream(ctx, http.MethodGet, "/backup/download", query, w)
	if err != nil {
		return n, fmt.Errorf("download backup request failed: %w", err)
	}
	return n, nil
}

// RestoreBackup восстанавливает базу из резервной копии
func (c *Client) RestoreBackup(ctx context.Context, fileName string) (string, error) {
	query := url.Values{"fileName": {fileName}}
	msg, err := c.doText(ctx, http.MethodPost, "/backup/restore", query)
	if err != nil {
		return "", fmt.Errorf("restore backup request failed: %w", err)
	}
	return msg, nil
}
