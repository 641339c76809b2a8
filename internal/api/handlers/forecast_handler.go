package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/replenishment"
)

type ForecastHandler struct {
	service ForecastService
}

func NewForecastHandler(service ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// parseRequest reads forecast query parameters. Absent values are left zero
// for the service to default; malformed values are rejected.
func parseRequest(c *gin.Context) (domain.ForecastRequest, error) {
	req := domain.ForecastRequest{SKU: strings.TrimSpace(c.Query("sku"))}

	if raw := strings.TrimSpace(c.Query("model")); raw != "" {
		model, ok := forecast.ParseModelKey(raw)
		if !ok {
			return req, fmt.Errorf("unknown model %q", raw)
		}
		req.Model = model
	}

	parseInt := func(param string, dst *int) error {
		raw := strings.TrimSpace(c.Query(param))
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be an integer", param)
		}
		*dst = v
		return nil
	}
	if err := parseInt("horizon", &req.Horizon); err != nil {
		return req, err
	}
	if err := parseInt("lead_time", &req.LeadTime); err != nil {
		return req, err
	}

	if raw := c.Query("customer_type"); raw != "" {
		ct, ok := replenishment.ParseCustomerType(raw)
		if !ok {
			return req, fmt.Errorf("unknown customer_type %q", raw)
		}
		req.CustomerType = ct
	}

	if raw := strings.TrimSpace(c.Query("range")); raw != "" {
		r, ok := forecast.ParseRange(raw)
		if !ok {
			return req, fmt.Errorf("unknown range %q", raw)
		}
		req.Range = r
	}

	parseFloat := func(param string) (*float64, error) {
		raw := strings.TrimSpace(c.Query(param))
		if raw == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", param)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%s must be a finite number", param)
		}
		return &f, nil
	}
	var err error
	if req.CurrentStock, err = parseFloat("current_stock"); err != nil {
		return req, err
	}
	if req.SafetyStock, err = parseFloat("safety_stock"); err != nil {
		return req, err
	}

	return req, nil
}

func (h *ForecastHandler) GetForecast(c *gin.Context) {
	req, err := parseRequest(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to compute forecast")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSummary returns only the compact forecast digest.
func (h *ForecastHandler) GetSummary(c *gin.Context) {
	req, err := parseRequest(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to compute forecast")
		return
	}

	c.JSON(http.StatusOK, resp.Summary)
}

type modelInfo struct {
	Model     forecast.ModelKey `json:"model"`
	Label     string            `json:"label"`
	MinPoints int               `json:"min_points"`
	Usable    bool              `json:"usable"`
	Reason    string            `json:"reason,omitempty"`
	Warning   string            `json:"warning,omitempty"`
}

// GetModels reports which models can run on ?n= monthly points.
func (h *ForecastHandler) GetModels(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("n", "0"))
	if err != nil || n < 0 {
		badRequest(c, "n must be a non-negative integer")
		return
	}

	applicability := forecast.Applicability(n)
	models := make([]modelInfo, 0, len(forecast.AllModels))
	for _, model := range forecast.AllModels {
		info := applicability[model]
		models = append(models, modelInfo{
			Model:     model,
			Label:     model.Label(),
			MinPoints: forecast.MinPoints(model),
			Usable:    info.Usable,
			Reason:    info.Reason,
			Warning:   info.Warning,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"points":  n,
		"models":  models,
		"primary": forecast.SelectPrimaryModel(forecast.ModelHolt, n),
	})
}
