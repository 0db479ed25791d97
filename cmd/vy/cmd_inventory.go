package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/vyaapaar/dashcore/pkg/metrics"
	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/store"
)

func (a *app) cmdInventory(args []string) int {
	sub := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "list", "ls", "search":
		return a.inventoryList(args)
	case "add":
		return a.inventoryAdd(args)
	case "adjust":
		return a.inventoryAdjust(args)
	default:
		// vy inventory <query> is shorthand for list <query>.
		return a.inventoryList(append([]string{sub}, args...))
	}
}

func (a *app) inventoryList(args []string) int {
	flags := flag.NewFlagSet("inventory list", flag.ContinueOnError)
	flags.SetOutput(a.errOut)
	jsonOut := flags.Bool("json", false, "JSON output")
	lowOnly := flags.Bool("low", false, "only low and out-of-stock items")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	query := strings.Join(flags.Args(), " ")

	items, err := a.store.ListInventory(context.Background(), query)
	if err != nil {
		return a.fail("inventory", err)
	}
	if *lowOnly {
		kept := items[:0]
		for _, it := range items {
			if it.Status != model.StockIn {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	if *jsonOut {
		if items == nil {
			items = []model.InventoryItem{}
		}
		a.printJSON(items)
		return 0
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "no items")
		return 0
	}
	for _, it := range items {
		a.printItem(it)
	}
	return 0
}

func (a *app) printItem(it model.InventoryItem) {
	fmt.Fprintf(a.out, "  %-4s %-22s %-12s %5d %-6s %10s  %-12s %s\n",
		it.ID, truncate(it.Name, 22), it.Category, it.Stock, it.Unit,
		formatMetric(metrics.KeyRevenue, it.Price), it.Status, humanize.Time(it.UpdatedAt))
}

func (a *app) inventoryAdd(args []string) int {
	flags := flag.NewFlagSet("inventory add", flag.ContinueOnError)
	flags.SetOutput(a.errOut)
	id := flags.String("id", "", "item ID (required)")
	name := flags.String("name", "", "item name (required)")
	category := flags.String("category", "", "category")
	stock := flags.Int64("stock", 0, "units in stock")
	price := flags.Int64("price", 0, "unit price in rupees")
	unit := flags.String("unit", "piece", "unit of sale")
	low := flags.Int64("low", 5, "low-stock threshold")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	item := &model.InventoryItem{
		ID:           *id,
		Name:         *name,
		Category:     *category,
		Stock:        *stock,
		Price:        *price,
		Unit:         *unit,
		LowThreshold: *low,
		UpdatedAt:    a.now().UTC(),
	}
	if item.Price < 0 {
		return a.fail("inventory add", &model.ValidationError{Field: "price", Reason: "must not be negative"})
	}
	if err := a.store.UpsertItem(context.Background(), item); err != nil {
		return a.fail("inventory add", err)
	}
	if *jsonOut {
		a.printJSON(item)
		return 0
	}
	fmt.Fprintf(a.out, "saved %s (%s)\n", item.ID, item.Status)
	return 0
}

func (a *app) inventoryAdjust(args []string) int {
	flags := flag.NewFlagSet("inventory adjust", flag.ContinueOnError)
	flags.SetOutput(a.errOut)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 2 {
		fmt.Fprintln(a.errOut, "usage: vy inventory adjust <id> <delta>")
		return 1
	}
	id := flags.Arg(0)
	delta, err := strconv.ParseInt(flags.Arg(1), 10, 64)
	if err != nil {
		return a.fail("inventory adjust", &model.ValidationError{Field: "delta", Reason: "not an integer: " + flags.Arg(1)})
	}

	item, err := a.store.AdjustStock(context.Background(), id, delta, a.now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(a.errOut, "vy: inventory adjust: no item %q\n", id)
		return 1
	}
	if err != nil {
		return a.fail("inventory adjust", err)
	}
	if *jsonOut {
		a.printJSON(item)
		return 0
	}
	fmt.Fprintf(a.out, "%s: stock %d (%s)\n", item.ID, item.Stock, item.Status)
	return 0
}
