package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/ingest"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/repository"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/service"
)

// ForecastService is the part of service.ForecastService the handlers use.
type ForecastService interface {
	Run(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastResponse, error)
	ListSKUs(ctx context.Context, filter domain.SKUFilter) ([]string, error)
	Demand(ctx context.Context, sku string) ([]forecast.DemandPoint, error)
	Rows(ctx context.Context, sku string) ([]domain.LabeledRow, error)
}

type IngestService interface {
	Upload(ctx context.Context, r io.Reader, opts service.UploadOptions) (*domain.UploadResult, error)
	ListDatasets(ctx context.Context, limit int) ([]domain.Dataset, error)
	DatasetRows(ctx context.Context, month forecast.Month) ([]domain.LabeledRow, error)
}

type DashboardService interface {
	Summary(ctx context.Context) (*domain.DashboardSummary, error)
}

var (
	_ ForecastService  = (*service.ForecastService)(nil)
	_ IngestService    = (*service.IngestService)(nil)
	_ DashboardService = (*service.DashboardService)(nil)
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSKURequired), errors.Is(err, service.ErrMonthRequired):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, ingest.ErrHeaderNotFound),
		errors.Is(err, ingest.ErrMissingColumn),
		errors.Is(err, ingest.ErrNoRows):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
