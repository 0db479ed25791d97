package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/vyaapaar/dashcore/pkg/metrics"
	"github.com/vyaapaar/dashcore/pkg/model"
)

func (a *app) cmdStatus(args []string) int {
	flags := flag.NewFlagSet("status", flag.ContinueOnError)
	flags.SetOutput(a.errOut)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	snap, err := a.snapshot(ctx)
	if err != nil {
		return a.fail("status", err)
	}
	u, _, err := a.usage(ctx)
	if err != nil {
		return a.fail("status", err)
	}

	if *jsonOut {
		a.printJSON(map[string]any{
			"metrics": snap,
			"usage":   u,
		})
		return 0
	}

	fmt.Fprintln(a.out, "metrics:")
	for _, k := range metrics.Keys {
		fmt.Fprintf(a.out, "  %-18s %s\n", metrics.Label(k), formatMetric(k, snap[k]))
	}
	fmt.Fprintf(a.out, "tokens: %s / %s (%.1f%%) since %s\n",
		formatMetric(metrics.KeyTokensUsed, u.Used),
		formatMetric(metrics.KeyTokensUsed, u.Limit),
		u.Percent, u.PeriodStart.Format("2006-01-02"))
	return 0
}

// snapshot reads the authoritative metrics straight from the store,
// without simulating any activity.
func (a *app) snapshot(ctx context.Context) (model.Snapshot, error) {
	now := a.now()
	start, err := a.cfg.Budget().PeriodStart(now)
	if err != nil {
		return nil, err
	}
	t, err := a.store.Totals(ctx, metrics.DayStart(now), now.Add(-30*24*time.Hour), start)
	if err != nil {
		return nil, err
	}
	return metrics.FromTotals(t), nil
}
