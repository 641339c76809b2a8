package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/repository"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/storage"
)

type fakeRepo struct {
	mu       sync.Mutex
	rows     []domain.InventoryRecord
	datasets []domain.Dataset
	err      error
	calls    int
}

var _ repository.InventoryRepository = (*fakeRepo)(nil)

func (f *fakeRepo) ListSKUs(ctx context.Context, filter domain.SKUFilter) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, r := range f.rows {
		if seen[r.SKU] || !strings.Contains(strings.ToLower(r.SKU), strings.ToLower(filter.Search)) {
			continue
		}
		seen[r.SKU] = true
		out = append(out, r.SKU)
	}
	sort.Strings(out)
	return out, f.err
}

func (f *fakeRepo) GetMonthlyRows(ctx context.Context, sku string) ([]domain.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.InventoryRecord
	for _, r := range f.rows {
		if r.SKU == sku {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetSafetyStock(ctx context.Context, sku string) (float64, error) {
	return 0, repository.ErrNotFound
}

func (f *fakeRepo) GetLatestRows(ctx context.Context, limit int) ([]domain.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := append([]domain.InventoryRecord(nil), f.rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Month.After(out[j].Month) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) GetRowsByMonth(ctx context.Context, month forecast.Month) ([]domain.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.InventoryRecord
	for _, r := range f.rows {
		if forecast.MonthOf(r.Month).Equal(month) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (f *fakeRepo) UpsertMonthlyRows(ctx context.Context, upload domain.Dataset, rows []domain.InventoryRecord) ([]domain.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	months := map[time.Time]int{}
	for _, r := range rows {
		months[r.Month]++
	}
	kept := f.rows[:0]
	for _, r := range f.rows {
		if _, replaced := months[r.Month]; !replaced {
			kept = append(kept, r)
		}
	}
	f.rows = append(kept, rows...)

	var created []domain.Dataset
	for m, n := range months {
		ds := upload
		ds.ID = "ds-" + m.Format("200601")
		ds.Month = m
		ds.RowCount = n
		created = append(created, ds)
	}
	sort.Slice(created, func(i, j int) bool { return created[i].Month.Before(created[j].Month) })
	f.datasets = append(f.datasets, created...)
	return created, nil
}

func (f *fakeRepo) ListDatasets(ctx context.Context, limit int) ([]domain.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.datasets, f.err
}

type fakeForecastCache struct {
	entries     map[string]*domain.ForecastResponse
	getErr      error
	invalidated int
}

func newFakeForecastCache() *fakeForecastCache {
	return &fakeForecastCache{entries: map[string]*domain.ForecastResponse{}}
}

func (c *fakeForecastCache) GetForecast(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastResponse, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	resp, ok := c.entries[req.SKU+"|"+string(req.Model)]
	return resp, ok, nil
}

func (c *fakeForecastCache) SetForecast(ctx context.Context, req domain.ForecastRequest, resp *domain.ForecastResponse) error {
	c.entries[req.SKU+"|"+string(req.Model)] = resp
	return nil
}

func (c *fakeForecastCache) InvalidateAll(ctx context.Context) error {
	c.invalidated++
	c.entries = map[string]*domain.ForecastResponse{}
	return nil
}

type fakeArchive struct {
	objects map[string][]byte
	err     error
}

var _ storage.ObjectStorage = (*fakeArchive)(nil)

func (a *fakeArchive) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for k, v := range a.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (a *fakeArchive) DownloadObject(ctx context.Context, key, destPath string) error {
	return nil
}

func (a *fakeArchive) UploadObject(ctx context.Context, key string, data []byte) error {
	if a.err != nil {
		return a.err
	}
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = data
	return nil
}

// monthlyRows builds one row per month for sku starting at start.
func monthlyRows(sku, start string, stock float64, safety *float64, sales ...float64) []domain.InventoryRecord {
	first := mustMonth(start)
	out := make([]domain.InventoryRecord, len(sales))
	for i, q := range sales {
		out[i] = domain.InventoryRecord{
			SKU:           sku,
			Month:         first.AddMonths(i).Time(),
			MonthSales:    q,
			MonthEndStock: stock,
			SafetyStock:   safety,
		}
	}
	return out
}

func ptr(v float64) *float64 { return &v }

// mustMonth parses a month literal known to be valid.
func mustMonth(value string) forecast.Month {
	m, err := forecast.ParseMonth(value)
	if err != nil {
		panic(err)
	}
	return m
}
