package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/service"
)

type InventoryHandler struct {
	forecasts      ForecastService
	ingest         IngestService
	maxUploadBytes int64
}

func NewInventoryHandler(forecasts ForecastService, ingest IngestService, maxUploadBytes int64) *InventoryHandler {
	return &InventoryHandler{forecasts: forecasts, ingest: ingest, maxUploadBytes: maxUploadBytes}
}

// ListSKUs returns SKUs matching ?search=, at most ?limit= of them.
func (h *InventoryHandler) ListSKUs(c *gin.Context) {
	filter := domain.SKUFilter{Search: strings.TrimSpace(c.Query("search"))}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "200")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	skus, err := h.forecasts.ListSKUs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to fetch skus")
		return
	}
	if skus == nil {
		skus = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"skus": skus})
}

// GetDemand returns the monthly demand series of ?sku=.
func (h *InventoryHandler) GetDemand(c *gin.Context) {
	sku := strings.TrimSpace(c.Query("sku"))
	demand, err := h.forecasts.Demand(c.Request.Context(), sku)
	if err != nil {
		respondError(c, err, "failed to fetch demand")
		return
	}
	if demand == nil {
		demand = []forecast.DemandPoint{}
	}

	c.JSON(http.StatusOK, gin.H{"sku": sku, "demand": demand})
}

// GetRows returns the stored monthly rows of ?sku= with stock labels.
func (h *InventoryHandler) GetRows(c *gin.Context) {
	sku := strings.TrimSpace(c.Query("sku"))
	rows, err := h.forecasts.Rows(c.Request.Context(), sku)
	if err != nil {
		respondError(c, err, "failed to fetch rows")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sku": sku, "rows": rows})
}

// Upload accepts a multipart "file" (CSV or XLSX) and replaces the months it covers.
// An optional "month" field (YYYY-MM) dates rows that carry no month of their own.
func (h *InventoryHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		badRequest(c, "no file provided")
		return
	}

	opts := service.UploadOptions{
		FileName:   header.Filename,
		UploadedBy: strings.TrimSpace(c.PostForm("uploaded_by")),
	}
	if raw := strings.TrimSpace(c.PostForm("month")); raw != "" {
		month, err := forecast.ParseMonth(raw)
		if err != nil {
			badRequest(c, "invalid month, expected YYYY-MM")
			return
		}
		opts.DefaultMonth = month
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, err, "failed to read upload")
		return
	}
	defer file.Close()

	result, err := h.ingest.Upload(c.Request.Context(), file, opts)
	if err != nil {
		respondError(c, err, "failed to ingest upload")
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *InventoryHandler) ListDatasets(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 {
		limit = 50
	}

	datasets, err := h.ingest.ListDatasets(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "failed to fetch datasets")
		return
	}
	if datasets == nil {
		datasets = []domain.Dataset{}
	}

	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

// GetDataset returns every row of one uploaded month for drill-down.
func (h *InventoryHandler) GetDataset(c *gin.Context) {
	month, err := forecast.ParseMonth(c.Param("month"))
	if err != nil {
		badRequest(c, "invalid month, expected YYYY-MM")
		return
	}

	rows, err := h.ingest.DatasetRows(c.Request.Context(), month)
	if err != nil {
		respondError(c, err, "failed to fetch dataset")
		return
	}

	c.JSON(http.StatusOK, gin.H{"month": month, "rows": rows, "count": len(rows)})
}
