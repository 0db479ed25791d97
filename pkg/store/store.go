// Package store is the SQLite data-store collaborator behind the dashboard.
//
// It keeps three ledgers: sales (revenue, orders, customers), token usage
// per conversation surface, and the shop inventory. The metrics feed reads
// aggregate Totals from here to build the authoritative snapshot; nothing
// about conversations themselves is persisted.
//
// Timestamps are stored as unix nanoseconds so range filters compare
// integers. Writes retry on transient WAL contention.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vyaapaar/dashcore/pkg/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an inventory item does not exist.
var ErrNotFound = errors.New("not found")

// Store manages all SQLite operations with WAL mode for concurrent access.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database and initializes the schema.
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func retryOnContention(ctx context.Context, fn func() error) error {
	return retryOp(ctx, defaultRetryConfig, fn)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sales (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		amount      INTEGER NOT NULL,
		customer_id TEXT NOT NULL,
		created_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sales_created ON sales(created_at);

	CREATE TABLE IF NOT EXISTS usage (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		surface    TEXT NOT NULL,
		tokens     INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_usage_created ON usage(created_at);

	CREATE TABLE IF NOT EXISTS inventory (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		stock         INTEGER NOT NULL DEFAULT 0,
		price         INTEGER NOT NULL DEFAULT 0,
		unit          TEXT NOT NULL DEFAULT '',
		low_threshold INTEGER NOT NULL DEFAULT 5,
		updated_at    INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// Sales
// ---------------------------------------------------------------------------

// RecordSale appends a sale. Returns the row ID.
func (s *Store) RecordSale(ctx context.Context, amount int64, customerID string, at time.Time) (int64, error) {
	if amount < 0 {
		return 0, &model.ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	var id int64
	err := retryOnContention(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO sales (amount, customer_id, created_at) VALUES (?, ?, ?)`,
			amount, customerID, at.UnixNano(),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// ListSales returns sales at or after since, newest first.
func (s *Store) ListSales(ctx context.Context, since time.Time, limit int) ([]model.Sale, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount, customer_id, created_at FROM sales
		 WHERE created_at >= ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		nanos(since), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Sale
	for rows.Next() {
		var sale model.Sale
		var ns int64
		if err := rows.Scan(&sale.ID, &sale.Amount, &sale.CustomerID, &ns); err != nil {
			return nil, err
		}
		sale.CreatedAt = time.Unix(0, ns).UTC()
		out = append(out, sale)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Usage
// ---------------------------------------------------------------------------

// RecordUsage appends a token usage entry for surface.
func (s *Store) RecordUsage(ctx context.Context, surface model.Surface, tokens int64, at time.Time) (int64, error) {
	if tokens < 0 {
		return 0, &model.ValidationError{Field: "tokens", Reason: "must not be negative"}
	}
	var id int64
	err := retryOnContention(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO usage (surface, tokens, created_at) VALUES (?, ?, ?)`,
			string(surface), tokens, at.UnixNano(),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// UsageSince returns the total tokens recorded at or after since.
func (s *Store) UsageSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(tokens), 0) FROM usage WHERE created_at >= ?`, nanos(since),
	).Scan(&total)
	return total, err
}

// UsageBySurface breaks UsageSince down per surface.
func (s *Store) UsageBySurface(ctx context.Context, since time.Time) (map[model.Surface]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT surface, SUM(tokens) FROM usage WHERE created_at >= ? GROUP BY surface`,
		nanos(since),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.Surface]int64)
	for rows.Next() {
		var surface string
		var n int64
		if err := rows.Scan(&surface, &n); err != nil {
			return nil, err
		}
		out[model.Surface(surface)] = n
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Totals
// ---------------------------------------------------------------------------

// Totals aggregates the ledgers into the figures behind the metric cards:
// all-time revenue, orders since dayStart, distinct customers since
// activeSince, tokens since usageSince and items at or below their
// low-stock threshold.
func (s *Store) Totals(ctx context.Context, dayStart, activeSince, usageSince time.Time) (model.Totals, error) {
	var t model.Totals
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COALESCE(SUM(amount), 0) FROM sales),
		   (SELECT COUNT(*) FROM sales WHERE created_at >= ?),
		   (SELECT COUNT(DISTINCT customer_id) FROM sales WHERE created_at >= ?),
		   (SELECT COALESCE(SUM(tokens), 0) FROM usage WHERE created_at >= ?),
		   (SELECT COUNT(*) FROM inventory WHERE stock <= low_threshold)`,
		nanos(dayStart), nanos(activeSince), nanos(usageSince),
	).Scan(&t.Revenue, &t.OrdersToday, &t.ActiveCustomers, &t.TokensUsed, &t.LowStockItems)
	if err != nil {
		return model.Totals{}, fmt.Errorf("totals: %w", err)
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Inventory
// ---------------------------------------------------------------------------

// UpsertItem inserts or replaces an inventory item. UpdatedAt defaults to
// now; Status is derived from stock and threshold.
func (s *Store) UpsertItem(ctx context.Context, item *model.InventoryItem) error {
	if strings.TrimSpace(item.ID) == "" {
		return &model.ValidationError{Field: "id", Reason: "empty"}
	}
	if strings.TrimSpace(item.Name) == "" {
		return &model.ValidationError{Field: "name", Reason: "empty"}
	}
	if item.Stock < 0 {
		return &model.ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}
	item.Status = model.StockStatusFor(item.Stock, item.LowThreshold)
	return retryOnContention(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO inventory (id, name, category, stock, price, unit, low_threshold, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   name = excluded.name,
			   category = excluded.category,
			   stock = excluded.stock,
			   price = excluded.price,
			   unit = excluded.unit,
			   low_threshold = excluded.low_threshold,
			   updated_at = excluded.updated_at`,
			item.ID, item.Name, item.Category, item.Stock, item.Price, item.Unit,
			item.LowThreshold, item.UpdatedAt.UnixNano(),
		)
		return err
	})
}

// GetItem retrieves an inventory item by ID.
func (s *Store) GetItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, category, stock, price, unit, low_threshold, updated_at
		 FROM inventory WHERE id = ?`, id,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return item, err
}

// ListInventory returns items ordered by name. A non-empty query keeps
// items whose name or category contains it, case-insensitively.
func (s *Store) ListInventory(ctx context.Context, query string) ([]model.InventoryItem, error) {
	q := `SELECT id, name, category, stock, price, unit, low_threshold, updated_at FROM inventory`
	var args []any
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q += ` WHERE lower(name) LIKE ? OR lower(category) LIKE ?`
		args = append(args, like, like)
	}
	q += ` ORDER BY name COLLATE NOCASE, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// AdjustStock adds delta to an item's stock inside a transaction. Stock
// cannot go below zero.
func (s *Store) AdjustStock(ctx context.Context, id string, delta int64, at time.Time) (*model.InventoryItem, error) {
	err := retryOnContention(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		var stock int64
		err = tx.QueryRowContext(ctx, `SELECT stock FROM inventory WHERE id = ?`, id).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if stock+delta < 0 {
			return &model.ValidationError{
				Field:  "delta",
				Reason: fmt.Sprintf("stock %d cannot drop by %d", stock, -delta),
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE inventory SET stock = ?, updated_at = ? WHERE id = ?`,
			stock+delta, at.UnixNano(), id,
		); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return s.GetItem(ctx, id)
}

// CountLowStock returns the number of items at or below their threshold,
// out-of-stock included.
func (s *Store) CountLowStock(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inventory WHERE stock <= low_threshold`,
	).Scan(&n)
	return n, err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// nanos maps the zero time to the epoch so open-ended filters match
// every row.
func nanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.InventoryItem, error) {
	var item model.InventoryItem
	var ns int64
	if err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Stock, &item.Price,
		&item.Unit, &item.LowThreshold, &ns); err != nil {
		return nil, err
	}
	item.UpdatedAt = time.Unix(0, ns).UTC()
	item.Status = model.StockStatusFor(item.Stock, item.LowThreshold)
	return &item, nil
}
