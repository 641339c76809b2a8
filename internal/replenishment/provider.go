package replenishment

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// CustomerType selects which safety stock policy applies.
type CustomerType string

const (
	CustomerRegular    CustomerType = "regular"
	CustomerKeyAccount CustomerType = "key_account"
)

// ParseCustomerType accepts "regular" / "key_account" and common spellings.
// Empty input resolves to Regular.
func ParseCustomerType(value string) (CustomerType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "regular", "normal":
		return CustomerRegular, true
	case "key_account", "key-account", "keyaccount", "key", "ka":
		return CustomerKeyAccount, true
	default:
		return "", false
	}
}

// SafetyStockProvider looks up a safety stock value for a SKU.
type SafetyStockProvider interface {
	SafetyStock(ctx context.Context, sku string, customerType CustomerType) (value float64, found bool, err error)
}

// Resolver asks each provider in order and returns the first value found.
type Resolver struct {
	providers []SafetyStockProvider
}

// NewResolver builds a Resolver; nil providers are skipped.
func NewResolver(providers ...SafetyStockProvider) *Resolver {
	r := &Resolver{}
	for _, p := range providers {
		if p != nil {
			r.providers = append(r.providers, p)
		}
	}
	return r
}

// SafetyStock implements SafetyStockProvider.
func (r *Resolver) SafetyStock(ctx context.Context, sku string, customerType CustomerType) (float64, bool, error) {
	for i, p := range r.providers {
		value, found, err := p.SafetyStock(ctx, sku, customerType)
		if err != nil {
			return 0, false, fmt.Errorf("safety stock provider %d: %w", i, err)
		}
		if found {
			return value, true, nil
		}
	}
	return 0, false, nil
}

// StaticProvider serves safety stock from memory. Entries can be keyed by
// "sku|customerType" or by plain "sku"; the customer-specific key wins.
type StaticProvider struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewStaticProvider copies values into a new provider.
func NewStaticProvider(values map[string]float64) *StaticProvider {
	p := &StaticProvider{values: make(map[string]float64, len(values))}
	for k, v := range values {
		p.values[k] = v
	}
	return p
}

// StaticKey returns the per-customer-type lookup key.
func StaticKey(sku string, customerType CustomerType) string {
	return sku + "|" + string(customerType)
}

// Set stores a value for sku, scoped to customerType when it is not empty.
func (p *StaticProvider) Set(sku string, customerType CustomerType, value float64) {
	key := sku
	if customerType != "" {
		key = StaticKey(sku, customerType)
	}
	p.mu.Lock()
	p.values[key] = value
	p.mu.Unlock()
}

// SafetyStock implements SafetyStockProvider.
func (p *StaticProvider) SafetyStock(_ context.Context, sku string, customerType CustomerType) (float64, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if customerType != "" {
		if v, ok := p.values[StaticKey(sku, customerType)]; ok {
			return v, true, nil
		}
	}
	v, ok := p.values[sku]
	return v, ok, nil
}
