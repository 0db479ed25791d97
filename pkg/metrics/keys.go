// Package metrics produces the authoritative dashboard snapshot. A Feed
// reads aggregate totals from the store on a fixed cadence, optionally
// simulating shop activity first, and hands each snapshot to its
// publishers: the interpolation engine and the telemetry exporter.
package metrics

import "github.com/vyaapaar/dashcore/pkg/model"

// Snapshot keys.
const (
	KeyRevenue         = "revenue"
	KeyOrdersToday     = "orders_today"
	KeyActiveCustomers = "active_customers"
	KeyTokensUsed      = "ai_tokens_used"
	KeyLowStock        = "low_stock_items"
)

// Keys lists the snapshot keys in display order.
var Keys = []string{KeyRevenue, KeyOrdersToday, KeyActiveCustomers, KeyTokensUsed, KeyLowStock}

var labels = map[string]string{
	KeyRevenue:         "Total Revenue",
	KeyOrdersToday:     "Orders Today",
	KeyActiveCustomers: "Active Customers",
	KeyTokensUsed:      "AI Tokens Used",
	KeyLowStock:        "Low Stock Items",
}

// Label returns the display name for key.
func Label(key string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return key
}

// FromTotals maps store totals onto snapshot keys.
func FromTotals(t model.Totals) model.Snapshot {
	return model.Snapshot{
		KeyRevenue:         t.Revenue,
		KeyOrdersToday:     t.OrdersToday,
		KeyActiveCustomers: t.ActiveCustomers,
		KeyTokensUsed:      t.TokensUsed,
		KeyLowStock:        t.LowStockItems,
	}
}
