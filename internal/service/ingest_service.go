package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/ingest"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/repository"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/storage"
)

// UploadOptions describe where an upload came from.
type UploadOptions struct {
	FileName     string
	UploadedBy   string
	DefaultMonth forecast.Month
}

type IngestService struct {
	repo          repository.InventoryRepository
	archive       storage.ObjectStorage
	archivePrefix string
	forecasts     cache.ForecastCache
	dashboards    cache.DashboardSummaryCache
	now           func() time.Time
}

// NewIngestService builds the upload pipeline. archive may be nil to skip
// keeping the raw file.
func NewIngestService(
	repo repository.InventoryRepository,
	archive storage.ObjectStorage,
	archivePrefix string,
	forecasts cache.ForecastCache,
	dashboards cache.DashboardSummaryCache,
) *IngestService {
	if forecasts == nil {
		forecasts = cache.NewNoopForecastCache()
	}
	if dashboards == nil {
		dashboards = cache.NewNoopDashboardCache()
	}
	return &IngestService{
		repo:          repo,
		archive:       archive,
		archivePrefix: archivePrefix,
		forecasts:     forecasts,
		dashboards:    dashboards,
		now:           time.Now,
	}
}

// Upload parses a spreadsheet, replaces the months it covers and drops cached
// forecasts. The raw file is archived first when an archive is configured;
// archive failures are logged and the upload continues without a storage path.
func (s *IngestService) Upload(ctx context.Context, r io.Reader, opts UploadOptions) (*domain.UploadResult, error) {
	name := strings.TrimSpace(opts.FileName)
	if _, err := ingest.DetectFormat(name); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", name, err)
	}

	records, err := ingest.Parse(bytes.NewReader(data), ingest.Options{
		FileName:     name,
		DefaultMonth: opts.DefaultMonth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	batchID := uuid.NewString()
	storagePath := ""
	if s.archive != nil {
		key := storage.ArchiveKey(s.archivePrefix, batchID, name, s.now())
		if err := s.archive.UploadObject(ctx, key, data); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("ingest: archive upload failed")
		} else {
			storagePath = key
		}
	}

	datasets, err := s.repo.UpsertMonthlyRows(ctx, domain.Dataset{
		OriginalFilename: name,
		StoragePath:      storagePath,
		UploadedBy:       opts.UploadedBy,
	}, records)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", name, err)
	}

	if err := s.forecasts.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("ingest: forecast cache invalidation failed")
	}
	if err := s.dashboards.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("ingest: dashboard cache invalidation failed")
	}

	result := &domain.UploadResult{
		BatchID:     batchID,
		FileName:    name,
		StoragePath: storagePath,
		Rows:        len(records),
		SKUs:        len(ingest.SKUs(records)),
		Months:      uploadedMonths(records),
		Datasets:    datasets,
	}
	if result.Datasets == nil {
		result.Datasets = []domain.Dataset{}
	}

	log.Info().
		Str("batch_id", batchID).
		Str("file", name).
		Int("rows", result.Rows).
		Strs("months", result.Months).
		Msg("inventory upload stored")

	return result, nil
}

func (s *IngestService) ListDatasets(ctx context.Context, limit int) ([]domain.Dataset, error) {
	return s.repo.ListDatasets(ctx, limit)
}

// DatasetRows returns the rows stored for one month with their stock status.
func (s *IngestService) DatasetRows(ctx context.Context, month forecast.Month) ([]domain.LabeledRow, error) {
	if month.IsZero() {
		return nil, ErrMonthRequired
	}
	records, err := s.repo.GetRowsByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s: %w", month, repository.ErrNotFound)
	}
	return domain.LabelRows(records), nil
}

func uploadedMonths(records []domain.InventoryRecord) []string {
	seen := make(map[string]struct{})
	months := make([]string, 0)
	for _, r := range records {
		m := forecast.MonthOf(r.Month).String()
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}
