// iface.go defines StoreInterface so the metrics feed and the CLI can be
// tested against a fake.
package store

import (
	"context"
	"time"

	"github.com/vyaapaar/dashcore/pkg/model"
)

// StoreInterface defines the full set of store operations.
// The concrete *Store type implements this interface.
type StoreInterface interface {
	// Close closes the database connection.
	Close() error

	// --- Sales ---

	RecordSale(ctx context.Context, amount int64, customerID string, at time.Time) (int64, error)
	ListSales(ctx context.Context, since time.Time, limit int) ([]model.Sale, error)

	// --- Usage ---

	RecordUsage(ctx context.Context, surface model.Surface, tokens int64, at time.Time) (int64, error)
	UsageSince(ctx context.Context, since time.Time) (int64, error)
	UsageBySurface(ctx context.Context, since time.Time) (map[model.Surface]int64, error)

	// --- Aggregates ---

	// Totals feeds the authoritative metrics snapshot.
	Totals(ctx context.Context, dayStart, activeSince, usageSince time.Time) (model.Totals, error)

	// --- Inventory ---

	UpsertItem(ctx context.Context, item *model.InventoryItem) error
	GetItem(ctx context.Context, id string) (*model.InventoryItem, error)
	ListInventory(ctx context.Context, query string) ([]model.InventoryItem, error)
	AdjustStock(ctx context.Context, id string, delta int64, at time.Time) (*model.InventoryItem, error)
	CountLowStock(ctx context.Context) (int64, error)

	// --- Seeding ---

	Empty(ctx context.Context) (bool, error)
	SeedDemo(ctx context.Context, dayStart, now time.Time) error
}

// Compile-time check that *Store implements StoreInterface.
var _ StoreInterface = (*Store)(nil)
