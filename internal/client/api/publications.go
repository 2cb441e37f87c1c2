package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/iudanet/labdesk/internal/models"
)

func publicationPath(id int64) string {
	return "/publications/" + strconv.FormatInt(id, 10)
}

// ListPublications возвращает все публикации
func (c *Client) ListPublications(ctx context.Context) ([]models.Publication, error) {
	var publications []models.Publication
	if err := c.doRequest(ctx, http.MethodGet, "/publications", nil, nil, &publications); err != nil {
		return nil, fmt.Errorf("list publications request failed: %w", err)
	}
	return publications, nil
}

// CreatePublication создает публикацию
func (c *Client) CreatePublication(ctx context.Context, publication models.Publication) (*models.Publication, error) {
	var created models.Publication
	if err := c.doRequest(ctx, http.MethodPost, "/publications", nil, publication, &created); err != nil {
		return nil, fmt.Errorf("create publication request failed: %w", err)
	}
	return &created, nil
}

// UpdatePublication заменяет поля публикации
func (c *Client) UpdatePublication(ctx context.Context, publication models.Publication) (*models.Publication, error) {
	var updated models.Publication
	if err := c.doRequest(ctx, http.MethodPut, publicationPath(publication.PublicationID), nil, publication, &updated); err != nil {
		return nil, fmt.Errorf("update publication request failed: %w", err)
	}
	return &updated, nil
}

// DeletePublication удаляет публикацию
func (c *Client) DeletePublication(ctx context.Context, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, publicationPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete publication request failed: %w", err)
	}
	return nil
}
