package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/config"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/ingest"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/replenishment"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/repository"
)

var (
	ErrSKURequired   = errors.New("sku is required")
	ErrMonthRequired = errors.New("month is required")
)

// ForecastDefaults fill in whatever a request leaves out.
type ForecastDefaults struct {
	Model           forecast.ModelKey
	Horizon         int
	LeadTime        int
	Range           forecast.Range
	BacktestHoldout int
}

// DefaultsFromConfig reads forecast defaults, ignoring invalid values.
func DefaultsFromConfig(cfg config.ForecastConfig) ForecastDefaults {
	d := ForecastDefaults{
		Model:           forecast.ModelHolt,
		Horizon:         forecast.DefaultHorizon,
		LeadTime:        replenishment.DefaultLeadTimeMonths,
		Range:           forecast.Range12M,
		BacktestHoldout: 3,
	}
	if m, ok := forecast.ParseModelKey(cfg.PrimaryModel); ok {
		d.Model = m
	}
	if cfg.DefaultHorizon > 0 {
		d.Horizon = forecast.ClampHorizon(cfg.DefaultHorizon)
	}
	if cfg.DefaultLeadTime > 0 {
		d.LeadTime = replenishment.ClampLeadTime(cfg.DefaultLeadTime)
	}
	if r, ok := forecast.ParseRange(cfg.DefaultRange); ok {
		d.Range = r
	}
	if cfg.BacktestHoldout > 0 {
		d.BacktestHoldout = cfg.BacktestHoldout
	}
	return d
}

type ForecastService struct {
	repo     repository.InventoryRepository
	safety   replenishment.SafetyStockProvider
	cache    cache.ForecastCache
	defaults ForecastDefaults
	now      func() time.Time
}

// NewForecastService wires the forecast pipeline. safety may be nil, in which
// case only request overrides supply safety stock.
func NewForecastService(
	repo repository.InventoryRepository,
	safety replenishment.SafetyStockProvider,
	cacheImpl cache.ForecastCache,
	defaults ForecastDefaults,
) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	return &ForecastService{
		repo:     repo,
		safety:   safety,
		cache:    cacheImpl,
		defaults: defaults,
		now:      time.Now,
	}
}

// Normalize applies defaults and clamps to a request.
func (s *ForecastService) Normalize(req domain.ForecastRequest) domain.ForecastRequest {
	return NormalizeRequest(req, s.defaults)
}

func NormalizeRequest(req domain.ForecastRequest, d ForecastDefaults) domain.ForecastRequest {
	req.SKU = strings.TrimSpace(req.SKU)

	if m, ok := forecast.ParseModelKey(string(req.Model)); ok {
		req.Model = m
	} else {
		req.Model = d.Model
	}

	if req.Horizon <= 0 {
		req.Horizon = d.Horizon
	}
	req.Horizon = forecast.ClampHorizon(req.Horizon)

	if req.LeadTime <= 0 {
		req.LeadTime = d.LeadTime
	}
	req.LeadTime = replenishment.ClampLeadTime(req.LeadTime)

	if ct, ok := replenishment.ParseCustomerType(string(req.CustomerType)); ok {
		req.CustomerType = ct
	} else {
		req.CustomerType = replenishment.CustomerRegular
	}

	if r, ok := forecast.ParseRange(string(req.Range)); ok {
		req.Range = r
	} else {
		req.Range = d.Range
	}

	// Non-finite overrides cannot be encoded; treat them as absent.
	req.CurrentStock = finiteOrNil(req.CurrentStock)
	req.SafetyStock = finiteOrNil(req.SafetyStock)
	return req
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

// Run forecasts one SKU from stored monthly rows. Responses are cached per
// normalized request; cache failures are logged and ignored.
func (s *ForecastService) Run(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastResponse, error) {
	req = s.Normalize(req)
	if req.SKU == "" {
		return nil, ErrSKURequired
	}

	if resp, ok, err := s.cache.GetForecast(ctx, req); err == nil && ok {
		return resp, nil
	} else if err != nil {
		log.Warn().Err(err).Str("sku", req.SKU).Msg("forecast: cache get failed")
	}

	var (
		records []domain.InventoryRecord
		safety  *float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.GetMonthlyRows(gctx, req.SKU)
		if err != nil {
			return err
		}
		records = rows
		return nil
	})
	if req.SafetyStock == nil && s.safety != nil {
		g.Go(func() error {
			value, found, err := s.safety.SafetyStock(gctx, req.SKU, req.CustomerType)
			if err != nil {
				return err
			}
			if found {
				safety = &value
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load inventory for %s: %w", req.SKU, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("sku %s: %w", req.SKU, repository.ErrNotFound)
	}

	resp := Compute(req, records, safety, s.defaults.BacktestHoldout, s.now())

	if err := s.cache.SetForecast(ctx, req, resp); err != nil {
		log.Warn().Err(err).Str("sku", req.SKU).Msg("forecast: cache set failed")
	}

	log.Debug().
		Str("sku", req.SKU).
		Str("model", string(resp.Forecast.Model)).
		Int("history_months", len(resp.History)).
		Msg("forecast computed")

	return resp, nil
}

func (s *ForecastService) ListSKUs(ctx context.Context, filter domain.SKUFilter) ([]string, error) {
	return s.repo.ListSKUs(ctx, filter)
}

// Demand returns the monthly demand series of sku.
func (s *ForecastService) Demand(ctx context.Context, sku string) ([]forecast.DemandPoint, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, ErrSKURequired
	}
	rows, err := s.repo.GetMonthlyRows(ctx, sku)
	if err != nil {
		return nil, err
	}
	return ingest.Demand(rows), nil
}

// Rows returns the stored monthly rows of sku with their stock labels.
func (s *ForecastService) Rows(ctx context.Context, sku string) ([]domain.LabeledRow, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, ErrSKURequired
	}
	rows, err := s.repo.GetMonthlyRows(ctx, sku)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sku %s: %w", sku, repository.ErrNotFound)
	}
	return domain.LabelRows(rows), nil
}

// Compute runs the forecasting core over records of a single SKU. req must
// already be normalized. safety is the resolved stored safety stock; request
// overrides win over it and over the stock found in records.
func Compute(req domain.ForecastRequest, records []domain.InventoryRecord, safety *float64, holdout int, now time.Time) *domain.ForecastResponse {
	history := ingest.Demand(records)

	current := req.CurrentStock
	if current == nil {
		if v, ok := ingest.CurrentStock(records); ok {
			current = &v
		}
	}
	if req.SafetyStock != nil {
		safety = req.SafetyStock
	}

	model := forecast.SelectPrimaryModel(req.Model, len(history))
	result := forecast.Forecast(history, model, req.Horizon)
	result.Requested = req.Model
	result.Substituted = result.Model != req.Model

	snapshot := replenishment.Evaluate(replenishment.Inputs{
		SKU:            req.SKU,
		CurrentStock:   current,
		SafetyStock:    safety,
		Forecast:       result.Points,
		History:        history,
		LeadTimeMonths: req.LeadTime,
	})

	chart := forecast.BuildChart(history, req.Horizon)
	chart.Rows = chart.Window(req.Range.Months())

	backtests := forecast.BacktestAll(forecast.Values(history), holdout)
	if backtests == nil {
		backtests = []forecast.BacktestResult{}
	}

	var warnings []string
	if result.Substituted {
		warnings = append(warnings, fmt.Sprintf("%s cannot run on %d months of history; using %s",
			req.Model.Label(), len(history), result.Model.Label()))
	}
	if result.Warning != "" {
		warnings = append(warnings, result.Warning)
	}
	if !snapshot.CurrentStockKnown {
		warnings = append(warnings, "current stock unknown, treated as 0")
	}
	if !snapshot.SafetyStockKnown {
		warnings = append(warnings, "safety stock unknown, treated as 0")
	}
	if warnings == nil {
		warnings = []string{}
	}

	generatedAt := now.UTC()
	return &domain.ForecastResponse{
		Request:       req,
		History:       history,
		Forecast:      result,
		Replenishment: snapshot,
		Chart:         chart,
		Backtests:     backtests,
		Warnings:      warnings,
		Summary:       summarize(req, history, result, snapshot, generatedAt),
		GeneratedAt:   generatedAt,
	}
}

func summarize(
	req domain.ForecastRequest,
	history []forecast.DemandPoint,
	result forecast.Result,
	snapshot replenishment.Snapshot,
	generatedAt time.Time,
) domain.ForecastSummary {
	next := make(map[forecast.ModelKey][]forecast.ForecastPoint)
	for _, model := range forecast.Applicability(len(history)).UsableModels() {
		next[model] = forecast.Forecast(history, model, req.Horizon).Points
	}

	summary := domain.ForecastSummary{
		SKU:             req.SKU,
		Model:           result.Model,
		ModelLabel:      result.Model.Label(),
		Horizon:         result.Horizon,
		LeadTimeMonths:  snapshot.LeadTimeMonths,
		CurrentStock:    snapshot.CurrentStock,
		SafetyStock:     snapshot.SafetyStock,
		LeadTimeDemand:  snapshot.LeadTimeDemand,
		ReorderQuantity: snapshot.ReorderQuantity,
		Risk:            snapshot.Risk,
		NextMonths:      next,
		GeneratedAt:     generatedAt,
	}
	if snapshot.StockoutMonth != nil {
		label := snapshot.StockoutMonth.String()
		summary.StockoutMonth = &label
	}
	return summary
}
