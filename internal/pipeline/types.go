package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/service"
)

// Uploader stores one spreadsheet; service.IngestService satisfies it.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, opts service.UploadOptions) (*domain.UploadResult, error)
}

var _ Uploader = (*service.IngestService)(nil)

// Config holds configuration for a directory import
type Config struct {
	WorkerCount   int           // Number of month groups imported concurrently
	RetryAttempts int           // Extra attempts for a failed upload
	RetryBackoff  time.Duration // Wait between attempts
	UploadedBy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		WorkerCount:   4,
		RetryAttempts: 2,
		RetryBackoff:  2 * time.Second,
		UploadedBy:    "pipeline",
	}
}

// FileStatus represents the state of a single file
type FileStatus string

const (
	FileStatusQueued     FileStatus = "queued"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
)

// FileJob tracks the import of one file.
type FileJob struct {
	Path       string               `json:"path"`
	Month      forecast.Month       `json:"month"` // from the file name; zero when undated
	Status     FileStatus           `json:"status"`
	Attempts   int                  `json:"attempts"`
	Error      string               `json:"error,omitempty"`
	Result     *domain.UploadResult `json:"result,omitempty"`
	DurationMS int64                `json:"duration_ms"`
}

// Summary is the outcome of a Run.
type Summary struct {
	Jobs      []*FileJob `json:"jobs"`
	Completed int        `json:"completed"`
	Failed    int        `json:"failed"`
	TotalRows int        `json:"total_rows"`
}
