package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/vyaapaar/dashcore/pkg/store"
)

func (a *app) cmdInit(args []string) int {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	flags.SetOutput(a.errOut)
	noSeed := flags.Bool("no-seed", false, "create the schema only, skip demo data")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	fmt.Fprintf(a.out, "initialized vy (db: %s)\n", a.cfg.DB)
	if *noSeed {
		return 0
	}

	seeded, err := a.ensureSeeded(ctx)
	if err != nil {
		return a.fail("init", err)
	}
	if !seeded {
		fmt.Fprintln(a.out, "  database already has data, demo seed skipped")
		return 0
	}
	items, err := a.store.ListInventory(ctx, "")
	if err != nil {
		return a.fail("init", err)
	}
	fmt.Fprintf(a.out, "  seeded %d sales, %d inventory items\n", store.DemoCustomers, len(items))
	return 0
}
