package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/config"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/ingest"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/replenishment"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/service"
)

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Spreadsheet to read", Required: true},
		&cli.StringFlag{Name: "sku", Aliases: []string{"s"}, Usage: "SKU to forecast; optional when the file holds one SKU"},
		&cli.StringFlag{Name: "month", Usage: "Month (YYYY-MM) for rows without one"},
		&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "NAIVE, SNAIVE, SMA, SES, HOLT or HW"},
		&cli.IntFlag{Name: "horizon", Usage: "Months to forecast (1-24)"},
		&cli.IntFlag{Name: "lead-time", Usage: "Supplier lead time in months (1-12)"},
		&cli.StringFlag{Name: "customer-type", Usage: "regular or key_account", Value: string(replenishment.CustomerRegular)},
		&cli.StringFlag{Name: "range", Usage: "Chart lookback: 6M, 12M, 18M, 24M or ALL"},
		&cli.Float64Flag{Name: "current-stock", Usage: "Override the stock found in the file"},
		&cli.Float64Flag{Name: "safety-stock", Usage: "Override the safety stock found in the file"},
		&cli.BoolFlag{Name: "summary", Usage: "Print only the compact summary"},
		&cli.BoolFlag{Name: "pretty", Usage: "Indent the JSON output", Value: true},
	}
}

// readFile parses a local spreadsheet the same way uploads are parsed.
func readFile(c *cli.Context) ([]domain.InventoryRecord, error) {
	path := c.String("file")
	opts := ingest.Options{FileName: filepath.Base(path)}
	if raw := c.String("month"); raw != "" {
		month, err := forecast.ParseMonth(raw)
		if err != nil {
			return nil, err
		}
		opts.DefaultMonth = month
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := ingest.Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// requestFromFlags validates enum flags; NormalizeRequest would silently
// default them.
func requestFromFlags(c *cli.Context) (domain.ForecastRequest, error) {
	req := domain.ForecastRequest{
		SKU:      strings.TrimSpace(c.String("sku")),
		Horizon:  c.Int("horizon"),
		LeadTime: c.Int("lead-time"),
	}

	if raw := c.String("model"); raw != "" {
		model, ok := forecast.ParseModelKey(raw)
		if !ok {
			return req, fmt.Errorf("unknown model %q", raw)
		}
		req.Model = model
	}
	ct, ok := replenishment.ParseCustomerType(c.String("customer-type"))
	if !ok {
		return req, fmt.Errorf("unknown customer type %q", c.String("customer-type"))
	}
	req.CustomerType = ct

	if raw := c.String("range"); raw != "" {
		r, ok := forecast.ParseRange(raw)
		if !ok {
			return req, fmt.Errorf("unknown range %q", raw)
		}
		req.Range = r
	}
	for _, flag := range []struct {
		name string
		dst  **float64
	}{
		{"current-stock", &req.CurrentStock},
		{"safety-stock", &req.SafetyStock},
	} {
		if !c.IsSet(flag.name) {
			continue
		}
		v := c.Float64(flag.name)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return req, fmt.Errorf("--%s must be a finite number", flag.name)
		}
		*flag.dst = &v
	}
	return req, nil
}

// pickSKU resolves the SKU to forecast when none was given.
func pickSKU(sku string, records []domain.InventoryRecord) (string, error) {
	if sku != "" {
		return sku, nil
	}
	skus := ingest.SKUs(records)
	switch len(skus) {
	case 0:
		return "", errors.New("file contains no SKUs")
	case 1:
		return skus[0], nil
	default:
		return "", fmt.Errorf("file contains %d SKUs; pass --sku", len(skus))
	}
}

func runForecast(c *cli.Context) error {
	req, err := requestFromFlags(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	records, err := readFile(c)
	if err != nil {
		return err
	}

	if req.SKU, err = pickSKU(req.SKU, records); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	records = ingest.FilterSKU(records, req.SKU)
	if len(records) == 0 {
		return cli.Exit(fmt.Sprintf("sku %s not found in %s", req.SKU, c.String("file")), 1)
	}

	defaults := service.DefaultsFromConfig(config.Load().Forecast)
	req = service.NormalizeRequest(req, defaults)

	var safety *float64
	if v, ok := ingest.SafetyStock(records); ok {
		safety = &v
	}

	resp := service.Compute(req, records, safety, defaults.BacktestHoldout, time.Now())

	var out interface{} = resp
	if c.Bool("summary") {
		out = resp.Summary
	}
	return writeJSON(c.App.Writer, out, c.Bool("pretty"))
}

func listSKUs(c *cli.Context) error {
	records, err := readFile(c)
	if err != nil {
		return err
	}
	for _, sku := range ingest.SKUs(records) {
		fmt.Fprintln(c.App.Writer, sku)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
