package main

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/vyaapaar/dashcore/pkg/model"
)

func (a *app) cmdUsage(args []string) int {
	flags := flag.NewFlagSet("usage", flag.ContinueOnError)
	flags.SetOutput(a.errOut)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	u, bySurface, err := a.usage(context.Background())
	if err != nil {
		return a.fail("usage", err)
	}

	if *jsonOut {
		a.printJSON(map[string]any{
			"usage":      u,
			"by_surface": bySurface,
		})
		return 0
	}

	fmt.Fprintf(a.out, "token usage since %s (%s)\n",
		u.PeriodStart.Format("2006-01-02 15:04"), humanize.Time(u.PeriodStart))
	fmt.Fprintf(a.out, "  %s %.1f%%\n", progressBar(u.Percent, 30), u.Percent)
	fmt.Fprintf(a.out, "  used       %s\n", humanize.Comma(u.Used))
	fmt.Fprintf(a.out, "  limit      %s\n", humanize.Comma(u.Limit))
	fmt.Fprintf(a.out, "  remaining  %s\n", humanize.Comma(u.Remaining))
	fmt.Fprintf(a.out, "  est. cost  %s\n", formatRupees(u.EstimatedCost))
	if u.Percent >= 80 {
		fmt.Fprintln(a.out, "  warning: over 80% of the monthly budget used")
	}

	surfaces := make([]model.Surface, 0, len(bySurface))
	for s := range bySurface {
		surfaces = append(surfaces, s)
	}
	sort.Slice(surfaces, func(i, j int) bool { return surfaces[i] < surfaces[j] })
	if len(surfaces) > 0 {
		fmt.Fprintln(a.out, "by surface:")
		for _, s := range surfaces {
			fmt.Fprintf(a.out, "  %-10s %s\n", s, humanize.Comma(bySurface[s]))
		}
	}
	return 0
}
