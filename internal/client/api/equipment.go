package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/iudanet/labdesk/internal/models"
)

func equipmentPath(id int64) string {
	return "/equipment/" + strconv.FormatInt(id, 10)
}

// ListEquipment возвращает всё оборудование
func (c *Client) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	var equipment []models.Equipment
	if err := c.doRequest(ctx, http.MethodGet, "/equipment", nil, nil, &equipment); err != nil {
		return nil, fmt.Errorf("list equipment request failed: %w", err)
	}
	return equipment, nil
}

// CreateEquipment добавляет оборудование
func (c *Client) CreateEquipment(ctx context.Context, equipment models.Equipment) (*models.Equipment, error) {
	var created models.Equipment
	if err := c.doRequest(ctx, http.MethodPost, "/equipment", nil, equipment, &created); err != nil {
		return nil, fmt.Errorf("create equipment request failed: %w", err)
	}
	return &created, nil
}

// UpdateEquipment заменяет поля оборудования
func (c *Client) UpdateEquipment(ctx context.Context, equipment models.Equipment) (*models.Equipment, error) {
	var updated models.Equipment
	if err := c.doRequest(ctx, http.MethodPut, equipmentPath(equipment.EquipmentID), nil, equipment, &updated); err != nil {
		return nil, fmt.Errorf("update equipment request failed: %w", err)
	}
	return &updated, nil
}

// DeleteEquipment удаляет оборудование
func (c *Client) DeleteEquipment(ctx context.Context, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, equipmentPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete equipment request failed: %w", err)
	}
	return nil
}
