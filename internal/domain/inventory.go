package domain

import "time"

// InventoryRecord is one SKU/batch row of a monthly inventory sheet.
type InventoryRecord struct {
	ID             int64     `json:"id,omitempty" db:"id"`
	DatasetID      *string   `json:"dataset_id,omitempty" db:"dataset_id"`
	Month          time.Time `json:"month" db:"month"`
	SKU            string    `json:"sku" db:"sku"`
	Batch          *string   `json:"batch,omitempty" db:"batch"`
	Category       string    `json:"category,omitempty" db:"category"`
	LastMonthStock float64   `json:"last_month_stock" db:"last_month_stock"`
	MonthIn        float64   `json:"month_in" db:"month_in"`
	MonthOut       float64   `json:"month_out" db:"month_out"`
	MonthSales     float64   `json:"month_sales" db:"month_sales"`
	MonthEndStock  float64   `json:"month_end_stock" db:"month_end_stock"`
	SafetyStock    *float64  `json:"safety_stock,omitempty" db:"safety_stock"`
	NoteValue      float64   `json:"note_value" db:"note_value"`
	Remark         *string   `json:"remark,omitempty" db:"remark"`
}

// Dataset tracks one uploaded file and the month it populated.
type Dataset struct {
	ID               string    `json:"id" db:"id"`
	Month            time.Time `json:"month" db:"month"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	StoragePath      string    `json:"storage_path" db:"storage_path"`
	RowCount         int       `json:"row_count" db:"row_count"`
	UploadedBy       string    `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// SKUFilter narrows SKU listings.
type SKUFilter struct {
	Search string `json:"search"`
	Limit  int    `json:"limit"`
}

// MonthlyDemand is the total sales of a SKU in one month.
type MonthlyDemand struct {
	Month    time.Time `json:"month" db:"month"`
	Quantity float64   `json:"quantity" db:"quantity"`
}

// UploadResult reports what an upload stored.
type UploadResult struct {
	BatchID     string    `json:"batch_id"`
	FileName    string    `json:"file_name"`
	StoragePath string    `json:"storage_path,omitempty"`
	Rows        int       `json:"rows"`
	SKUs        int       `json:"skus"`
	Months      []string  `json:"months"`
	Datasets    []Dataset `json:"datasets"`
}
