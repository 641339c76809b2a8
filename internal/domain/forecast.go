package domain

import (
	"time"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/replenishment"
)

// ForecastRequest is a normalized forecast query for one SKU. CurrentStock and
// SafetyStock override stored values when set.
type ForecastRequest struct {
	SKU          string                     `json:"sku"`
	Model        forecast.ModelKey          `json:"model"`
	Horizon      int                        `json:"horizon"`
	LeadTime     int                        `json:"lead_time"`
	CustomerType replenishment.CustomerType `json:"customer_type"`
	Range        forecast.Range             `json:"range"`
	CurrentStock *float64                   `json:"current_stock,omitempty"`
	SafetyStock  *float64                   `json:"safety_stock,omitempty"`
}

// ForecastSummary is the compact, prompt-ready digest of a forecast run.
type ForecastSummary struct {
	SKU             string                                         `json:"sku"`
	Model           forecast.ModelKey                              `json:"model"`
	ModelLabel      string                                         `json:"model_label"`
	Horizon         int                                            `json:"horizon"`
	LeadTimeMonths  int                                            `json:"lead_time_months"`
	CurrentStock    float64                                        `json:"current_stock"`
	SafetyStock     float64                                        `json:"safety_stock"`
	LeadTimeDemand  float64                                        `json:"lead_time_demand"`
	ReorderQuantity float64                                        `json:"reorder_quantity"`
	StockoutMonth   *string                                        `json:"projected_stockout_month"`
	Risk            replenishment.Risk                             `json:"risk"`
	NextMonths      map[forecast.ModelKey][]forecast.ForecastPoint `json:"next_months"`
	GeneratedAt     time.Time                                      `json:"generated_at"`
}

// ForecastResponse is the full forecast payload for one SKU.
type ForecastResponse struct {
	Request       ForecastRequest           `json:"request"`
	History       []forecast.DemandPoint    `json:"history"`
	Forecast      forecast.Result           `json:"forecast"`
	Replenishment replenishment.Snapshot    `json:"replenishment"`
	Chart         forecast.Chart            `json:"chart"`
	Backtests     []forecast.BacktestResult `json:"backtests"`
	Warnings      []string                  `json:"warnings"`
	Summary       ForecastSummary           `json:"summary"`
	GeneratedAt   time.Time                 `json:"generated_at"`
}
