// backend-go/internal/repository/inventory_repository.go
package repository

import (
	"context"
	"errors"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

type InventoryRepository interface {
	ListSKUs(ctx context.Context, filter domain.SKUFilter) ([]string, error)
	GetMonthlyRows(ctx context.Context, sku string) ([]domain.InventoryRecord, error)
	GetSafetyStock(ctx context.Context, sku string) (float64, error)
	GetLatestRows(ctx context.Context, limit int) ([]domain.InventoryRecord, error)
	// GetRowsByMonth returns every row recorded for month, ordered by SKU.
	GetRowsByMonth(ctx context.Context, month forecast.Month) ([]domain.InventoryRecord, error)

	// UpsertMonthlyRows replaces every month present in rows, and any earlier
	// upload of the same file, with the new rows. One dataset is recorded per month.
	UpsertMonthlyRows(ctx context.Context, upload domain.Dataset, rows []domain.InventoryRecord) ([]domain.Dataset, error)
	ListDatasets(ctx context.Context, limit int) ([]domain.Dataset, error)
}
