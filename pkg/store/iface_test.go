package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/vyaapaar/dashcore/pkg/model"
)

// TestStoreImplementsInterface drives every method through the interface
// type against a real database.
func TestStoreImplementsInterface(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var iface StoreInterface = s
	defer iface.Close()

	if empty, err := iface.Empty(ctx); err != nil || !empty {
		t.Fatalf("Empty = %v, %v", empty, err)
	}
	if err := iface.SeedDemo(ctx, day, noon); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	if _, err := iface.RecordSale(ctx, 99, "walk-in", noon); err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if sales, err := iface.ListSales(ctx, day, 5); err != nil || len(sales) != 5 {
		t.Fatalf("ListSales = %d, %v", len(sales), err)
	}
	if _, err := iface.RecordUsage(ctx, model.SurfaceChannel, 12, noon); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	if n, err := iface.UsageSince(ctx, day); err != nil || n != DemoTokensUsed+12 {
		t.Fatalf("UsageSince = %d, %v", n, err)
	}
	if by, err := iface.UsageBySurface(ctx, day); err != nil || by[model.SurfaceChannel] != 12 {
		t.Fatalf("UsageBySurface = %v, %v", by, err)
	}
	if tot, err := iface.Totals(ctx, day, day.AddDate(0, 0, -30), day); err != nil || tot.OrdersToday != DemoOrdersToday+1 {
		t.Fatalf("Totals = %+v, %v", tot, err)
	}
	if err := iface.UpsertItem(ctx, &model.InventoryItem{ID: "ghee", Name: "Desi Ghee", Stock: 9, LowThreshold: 2}); err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}
	if it, err := iface.GetItem(ctx, "ghee"); err != nil || it.Stock != 9 {
		t.Fatalf("GetItem = %+v, %v", it, err)
	}
	if items, err := iface.ListInventory(ctx, "ghee"); err != nil || len(items) != 1 {
		t.Fatalf("ListInventory = %d, %v", len(items), err)
	}
	if it, err := iface.AdjustStock(ctx, "ghee", -8, noon.Add(time.Minute)); err != nil || it.Status != model.StockLow {
		t.Fatalf("AdjustStock = %+v, %v", it, err)
	}
	if n, err := iface.CountLowStock(ctx); err != nil || n != 4 {
		t.Fatalf("CountLowStock = %d, %v", n, err)
	}
}
