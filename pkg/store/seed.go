package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vyaapaar/dashcore/pkg/model"
)

// Demo figures the dashboard opens with.
const (
	DemoRevenue     = 125000
	DemoOrdersToday = 23
	DemoCustomers   = 156
	DemoTokensUsed  = 4250
)

// DefaultInventory is the starter catalog.
func DefaultInventory(now time.Time) []model.InventoryItem {
	item := func(id, name, category string, stock, price int64, unit string, age time.Duration) model.InventoryItem {
		return model.InventoryItem{
			ID: id, Name: name, Category: category, Stock: stock, Price: price,
			Unit: unit, LowThreshold: 5, UpdatedAt: now.Add(-age).UTC(),
		}
	}
	return []model.InventoryItem{
		item("1", "Silk Saree - Red", "Clothing", 15, 2500, "piece", 2*time.Hour),
		item("2", "Cotton Kurta Set", "Clothing", 8, 800, "set", time.Hour),
		item("3", "Designer Lehenga", "Clothing", 3, 5000, "piece", 3*time.Hour),
		item("4", "Handloom Dupatta", "Accessories", 0, 400, "piece", 24*time.Hour),
		item("5", "Basmati Rice 5kg", "Grocery", 40, 350, "bag", 30*time.Minute),
		item("6", "Toor Dal 1kg", "Grocery", 4, 120, "pack", 45*time.Minute),
	}
}

// Empty reports whether no sales have been recorded yet.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

// SeedDemo loads the starter inventory plus a sales and usage history
// that reproduces the Demo* figures: DemoOrdersToday sales after dayStart,
// the rest spread over the previous four weeks, one sale per customer.
func (s *Store) SeedDemo(ctx context.Context, dayStart, now time.Time) error {
	for _, it := range DefaultInventory(now) {
		if err := s.UpsertItem(ctx, &it); err != nil {
			return fmt.Errorf("seed item %s: %w", it.ID, err)
		}
	}

	base := int64(DemoRevenue / DemoCustomers)
	extra := int64(DemoRevenue % DemoCustomers)
	today := now.Sub(dayStart)
	for i := 0; i < DemoCustomers; i++ {
		amount := base
		if int64(i) < extra {
			amount++
		}
		var at time.Time
		if i < DemoOrdersToday {
			at = dayStart.Add(today * time.Duration(i+1) / time.Duration(DemoOrdersToday+1))
		} else {
			at = dayStart.Add(-time.Duration(i-DemoOrdersToday+1) * 5 * time.Hour)
		}
		if _, err := s.RecordSale(ctx, amount, fmt.Sprintf("cust-%03d", i+1), at); err != nil {
			return fmt.Errorf("seed sale: %w", err)
		}
	}

	if _, err := s.RecordUsage(ctx, model.SurfaceAssistant, DemoTokensUsed, now); err != nil {
		return fmt.Errorf("seed usage: %w", err)
	}
	return nil
}
