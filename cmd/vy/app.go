package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vyaapaar/dashcore/pkg/config"
	"github.com/vyaapaar/dashcore/pkg/metrics"
	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/random"
	"github.com/vyaapaar/dashcore/pkg/replies"
	"github.com/vyaapaar/dashcore/pkg/store"
)

// app holds shared state for all CLI subcommands.
type app struct {
	cfg    *config.Config
	store  *store.Store
	log    *slog.Logger
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

// newApp opens the database named by cfg.
func newApp(cfg *config.Config, out, errOut io.Writer) (*app, error) {
	s, err := store.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("cannot open database %q: %w", cfg.DB, err)
	}
	return &app{
		cfg:    cfg,
		store:  s,
		log:    slog.Default(),
		out:    out,
		errOut: errOut,
		now:    time.Now,
	}, nil
}

// Close releases the database connection.
func (a *app) Close() { a.store.Close() }

// random returns the configured random source.
func (a *app) random() random.Source { return random.New(a.cfg.Seed) }

// replyLibrary loads VY_REPLIES_FILE when set, the built-in catalogs
// otherwise.
func (a *app) replyLibrary(rnd random.Source) (*replies.Library, error) {
	if a.cfg.RepliesFile != "" {
		return replies.LoadFile(a.cfg.RepliesFile, rnd)
	}
	return replies.Default(rnd)
}

// ensureSeeded loads demo data into an empty database. Returns true when
// it did.
func (a *app) ensureSeeded(ctx context.Context) (bool, error) {
	empty, err := a.store.Empty(ctx)
	if err != nil {
		return false, err
	}
	if !empty {
		return false, nil
	}
	now := a.now()
	if err := a.store.SeedDemo(ctx, metrics.DayStart(now), now); err != nil {
		return false, err
	}
	return true, nil
}

// usage reads token consumption for the current billing period.
func (a *app) usage(ctx context.Context) (metrics.Usage, map[model.Surface]int64, error) {
	b := a.cfg.Budget()
	start, err := b.PeriodStart(a.now())
	if err != nil {
		return metrics.Usage{}, nil, err
	}
	bySurface, err := a.store.UsageBySurface(ctx, start)
	if err != nil {
		return metrics.Usage{}, nil, err
	}
	var used int64
	for _, n := range bySurface {
		used += n
	}
	return b.Summarize(used, start), bySurface, nil
}

// fail prints err under the command name and maps it to an exit code:
// 2 for rejected input, 1 for everything else.
func (a *app) fail(cmd string, err error) int {
	fmt.Fprintf(a.errOut, "vy: %s: %v\n", cmd, err)
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return 2
	}
	return 1
}

// printJSON writes v to the app's output as indented JSON.
func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// formatMetric renders a metric value for people: revenue in rupees,
// everything else as a grouped count.
func formatMetric(key string, v int64) string {
	if key == metrics.KeyRevenue {
		return "₹" + humanize.Comma(v)
	}
	return humanize.Comma(v)
}

// formatRupees renders a fractional rupee amount with two decimals.
func formatRupees(v float64) string {
	return "₹" + humanize.CommafWithDigits(v, 2)
}

// progressBar draws pct (0-100, clamped) as a fixed-width bar.
func progressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(pct / 100 * float64(width))
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// truncate shortens s to n runes, marking the cut.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
