package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/vyaapaar/dashcore/pkg/metrics"
	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/tween"
)

func (a *app) cmdWatch(args []string) int {
	flags := flag.NewFlagSet("watch", flag.ContinueOnError)
	flags.SetOutput(a.errOut)
	runFor := flags.Duration("for", 0, "stop after this long (0 = until interrupted)")
	interval := flags.Duration("interval", 0, "override VY_FEED_INTERVAL")
	allFrames := flags.Bool("frames", false, "print every animation frame, not just settled values")
	jsonOut := flags.Bool("json", false, "JSON output (one JSON object per line)")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if *interval > 0 {
		a.cfg.FeedInterval = *interval
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *runFor)
		defer cancel()
	}

	eng, err := a.newEngine(ctx, a.log)
	if err != nil {
		return a.fail("watch", err)
	}

	var mu sync.Mutex
	var lastPrinted model.Snapshot
	unsubscribe := eng.tween.Subscribe(func(f tween.Frame) {
		mu.Lock()
		defer mu.Unlock()
		if !*allFrames && (len(f.Animating) > 0 || f.Values.Equal(lastPrinted)) {
			return
		}
		lastPrinted = f.Values
		a.printFrame(eng.sched.Now(), f, *jsonOut)
	})
	defer unsubscribe()

	fmt.Fprintf(a.errOut, "watching metrics (refresh every %s, ctrl-c to stop)\n", a.cfg.FeedInterval)
	eng.run(ctx, a.cfg.MetricsAddr)
	fmt.Fprintln(a.errOut, "stopped")
	return 0
}

type frameLine struct {
	At        time.Time      `json:"at"`
	Version   uint64         `json:"version"`
	Values    model.Snapshot `json:"values"`
	Animating []string       `json:"animating,omitempty"`
}

func (a *app) printFrame(at time.Time, f tween.Frame, jsonOut bool) {
	if jsonOut {
		b, _ := json.Marshal(frameLine{At: at, Version: f.Version, Values: f.Values, Animating: f.Animating})
		fmt.Fprintln(a.out, string(b))
		return
	}
	parts := make([]string, 0, len(metrics.Keys))
	for _, k := range metrics.Keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatMetric(k, f.Values[k])))
	}
	fmt.Fprintf(a.out, "[%s] %s\n", at.Format("15:04:05"), strings.Join(parts, " "))
}
