package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/config"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/replenishment"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/repository"
)

const (
	defaultSKULimit    = 200
	maxSKULimit        = 5000
	defaultLatestLimit = 12000

	// Uploads always land in the tables schema.sql creates.
	uploadTable   = "inventory_monthly"
	datasetsTable = "datasets"
)

type inventoryRepository struct {
	db *DB

	table    string
	uploads  string
	datasets string
	sku      string
	month    string
	sales    string
	stock    string
	safety   string
}

// NewInventoryRepository reads monthly inventory rows from the table and
// columns named by cfg. Uploads are written to the canonical inventory_monthly
// table, so a custom table is a read-only source. Identifiers are quoted, so
// configured names are never interpolated raw.
func NewInventoryRepository(db *DB, cfg config.InventoryConfig) *inventoryRepository {
	if cfg.Table != uploadTable {
		log.Warn().
			Str("table", cfg.Table).
			Str("upload_table", uploadTable).
			Msg("inventory reads use a custom table; uploads are not visible to forecasts")
	}
	return &inventoryRepository{
		db:       db,
		table:    qualified(cfg.Schema, cfg.Table),
		uploads:  qualified(cfg.Schema, uploadTable),
		datasets: qualified(cfg.Schema, datasetsTable),
		sku:      pq.QuoteIdentifier(cfg.SKUColumn),
		month:    pq.QuoteIdentifier(cfg.MonthColumn),
		sales:    pq.QuoteIdentifier(cfg.SalesColumn),
		stock:    pq.QuoteIdentifier(cfg.StockColumn),
		safety:   pq.QuoteIdentifier(cfg.SafetyColumn),
	}
}

var _ repository.InventoryRepository = (*inventoryRepository)(nil)
var _ replenishment.SafetyStockProvider = (*inventoryRepository)(nil)

func qualified(schema, table string) string {
	if schema == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

// recordColumns selects the configured columns under the names domain.InventoryRecord scans.
func (r *inventoryRepository) recordColumns() string {
	return fmt.Sprintf(`%s AS sku, %s AS month, COALESCE(%s, 0) AS month_sales,
		COALESCE(%s, 0) AS month_end_stock, %s AS safety_stock`,
		r.sku, r.month, r.sales, r.stock, r.safety)
}

func (r *inventoryRepository) ListSKUs(ctx context.Context, filter domain.SKUFilter) ([]string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSKULimit
	}
	if limit > maxSKULimit {
		limit = maxSKULimit
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT %[1]s
		FROM %[2]s
		WHERE %[1]s IS NOT NULL
		  AND ($1 = '' OR %[1]s ILIKE '%%' || $1 || '%%')
		ORDER BY %[1]s
		LIMIT $2
	`, r.sku, r.table)

	var skus []string
	if err := r.db.SelectContext(ctx, &skus, query, strings.TrimSpace(filter.Search), limit); err != nil {
		return nil, fmt.Errorf("error listing skus: %w", err)
	}
	return skus, nil
}

func (r *inventoryRepository) GetMonthlyRows(ctx context.Context, sku string) ([]domain.InventoryRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s
	`, r.recordColumns(), r.table, r.sku, r.month)

	var rows []domain.InventoryRecord
	if err := r.db.SelectContext(ctx, &rows, query, sku); err != nil {
		return nil, fmt.Errorf("error getting monthly rows for %s: %w", sku, err)
	}
	return rows, nil
}

// GetSafetyStock returns the largest recorded safety stock for sku, or
// repository.ErrNotFound when none is recorded.
func (r *inventoryRepository) GetSafetyStock(ctx context.Context, sku string) (float64, error) {
	query := fmt.Sprintf(`SELECT MAX(%s) FROM %s WHERE %s = $1`, r.safety, r.table, r.sku)

	var value sql.NullFloat64
	if err := r.db.GetContext(ctx, &value, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("error getting safety stock for %s: %w", sku, err)
	}
	if !value.Valid {
		return 0, repository.ErrNotFound
	}
	return value.Float64, nil
}

// SafetyStock implements replenishment.SafetyStockProvider. The stored value
// applies to every customer type.
func (r *inventoryRepository) SafetyStock(ctx context.Context, sku string, _ replenishment.CustomerType) (float64, bool, error) {
	value, err := r.GetSafetyStock(ctx, sku)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

func (r *inventoryRepository) GetLatestRows(ctx context.Context, limit int) ([]domain.InventoryRecord, error) {
	if limit <= 0 {
		limit = defaultLatestLimit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s IS NOT NULL
		ORDER BY %s DESC
		LIMIT $1
	`, r.recordColumns(), r.table, r.month, r.month)

	var rows []domain.InventoryRecord
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("error getting latest rows: %w", err)
	}
	return rows, nil
}

func (r *inventoryRepository) GetRowsByMonth(ctx context.Context, month forecast.Month) ([]domain.InventoryRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s >= $1 AND %s < $2
		ORDER BY %s
	`, r.recordColumns(), r.table, r.month, r.month, r.sku)

	var rows []domain.InventoryRecord
	if err := r.db.SelectContext(ctx, &rows, query, month.Time(), month.AddMonths(1).Time()); err != nil {
		return nil, fmt.Errorf("error getting rows for %s: %w", month, err)
	}
	return rows, nil
}

func (r *inventoryRepository) UpsertMonthlyRows(ctx context.Context, upload domain.Dataset, rows []domain.InventoryRecord) ([]domain.Dataset, error) {
	byMonth := make(map[time.Time][]domain.InventoryRecord)
	var months []time.Time
	var monthKeys []string
	for _, row := range rows {
		m := forecast.MonthOf(row.Month).Time()
		if _, ok := byMonth[m]; !ok {
			months = append(months, m)
			monthKeys = append(monthKeys, m.Format("2006-01-02"))
		}
		byMonth[m] = append(byMonth[m], row)
	}

	var created []domain.Dataset
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Same file name means a re-upload: drop what it produced last time.
		deleteByFile := fmt.Sprintf(`DELETE FROM %s WHERE original_filename = $1`, r.datasets)
		if _, err := tx.ExecContext(ctx, deleteByFile, upload.OriginalFilename); err != nil {
			return fmt.Errorf("failed to delete previous datasets for %s: %w", upload.OriginalFilename, err)
		}

		deleteMonths := fmt.Sprintf(`DELETE FROM %s WHERE month = ANY($1::date[])`, r.datasets)
		if _, err := tx.ExecContext(ctx, deleteMonths, pq.Array(monthKeys)); err != nil {
			return fmt.Errorf("failed to delete datasets for uploaded months: %w", err)
		}

		deleteRows := fmt.Sprintf(`DELETE FROM %s WHERE month = ANY($1::date[])`, r.uploads)
		if _, err := tx.ExecContext(ctx, deleteRows, pq.Array(monthKeys)); err != nil {
			return fmt.Errorf("failed to delete monthly rows for uploaded months: %w", err)
		}

		insertDataset := fmt.Sprintf(`
			INSERT INTO %s (id, month, original_filename, storage_path, row_count, uploaded_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING created_at
		`, r.datasets)

		insertRow := fmt.Sprintf(`
			INSERT INTO %s (
				dataset_id, month, sku, batch, category, last_month_stock,
				month_in, month_out, month_sales, month_end_stock,
				safety_stock, note_value, remark
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, r.uploads)

		stmt, err := tx.PreparexContext(ctx, insertRow)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, month := range months {
			monthRows := byMonth[month]
			ds := upload
			ds.ID = uuid.NewString()
			ds.Month = month
			ds.RowCount = len(monthRows)

			if err := tx.GetContext(ctx, &ds.CreatedAt, insertDataset,
				ds.ID, ds.Month, ds.OriginalFilename, ds.StoragePath, ds.RowCount, ds.UploadedBy,
			); err != nil {
				return fmt.Errorf("failed to insert dataset for %s: %w", month.Format("2006-01"), err)
			}

			for _, row := range monthRows {
				if _, err := stmt.ExecContext(ctx,
					ds.ID, month, row.SKU, row.Batch, row.Category, row.LastMonthStock,
					row.MonthIn, row.MonthOut, row.MonthSales, row.MonthEndStock,
					row.SafetyStock, row.NoteValue, row.Remark,
				); err != nil {
					return fmt.Errorf("failed to insert row for sku %s: %w", row.SKU, err)
				}
			}
			created = append(created, ds)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *inventoryRepository) ListDatasets(ctx context.Context, limit int) ([]domain.Dataset, error) {
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT id, month, original_filename, storage_path, row_count, uploaded_by, created_at
		FROM %s
		ORDER BY month DESC, created_at DESC
		LIMIT $1
	`, r.datasets)

	var datasets []domain.Dataset
	if err := r.db.SelectContext(ctx, &datasets, query, limit); err != nil {
		return nil, fmt.Errorf("error listing datasets: %w", err)
	}
	return datasets, nil
}
