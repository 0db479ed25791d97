package main

import (
	"context"
	"log/slog"

	"github.com/vyaapaar/dashcore/pkg/clock"
	"github.com/vyaapaar/dashcore/pkg/metrics"
	"github.com/vyaapaar/dashcore/pkg/random"
	"github.com/vyaapaar/dashcore/pkg/schedule"
	"github.com/vyaapaar/dashcore/pkg/telemetry"
	"github.com/vyaapaar/dashcore/pkg/tween"
)

// engine is the live metrics pipeline shared by watch and dash: a
// real-time scheduler driving the feed, whose snapshots retarget the tween
// engine and the Prometheus exporter.
type engine struct {
	sched    *schedule.Scheduler
	rnd      random.Source
	feed     *metrics.Feed
	tween    *tween.Engine
	exporter *telemetry.Exporter
	log      *slog.Logger
}

// newEngine builds the pipeline, seeding an empty database first. The
// tween engine starts from the stored figures so the first refresh only
// animates what changed.
func (a *app) newEngine(ctx context.Context, log *slog.Logger) (*engine, error) {
	if _, err := a.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	initial, err := a.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	sched := schedule.New(clock.Real{})
	rnd := a.random()
	exp := telemetry.New(sched.Len)
	feed := metrics.NewFeed(a.store, sched,
		metrics.WithInterval(a.cfg.FeedInterval),
		metrics.WithSimulation(a.cfg.Simulate),
		metrics.WithRandom(rnd),
		metrics.WithBudget(a.cfg.Budget()),
		metrics.WithLogger(log),
	)
	tw := tween.New(sched, initial,
		tween.WithSteps(a.cfg.TweenSteps),
		tween.WithDuration(a.cfg.TweenDuration),
		tween.WithLogger(log),
	)
	feed.AddPublisher(metrics.PublisherFunc(tw.Retarget))
	feed.AddPublisher(exp)
	exp.Publish(initial)
	tw.Subscribe(func(f tween.Frame) { exp.Displayed(f.Values) })

	return &engine{sched: sched, rnd: rnd, feed: feed, tween: tw, exporter: exp, log: log}, nil
}

// run drives the scheduler and feed until ctx is done, serving metrics on
// addr when it is set. It returns once every background task has stopped.
func (e *engine) run(ctx context.Context, addr string) {
	e.feed.Start(ctx)
	if addr != "" {
		go func() {
			if err := e.exporter.Serve(ctx, addr); err != nil {
				e.log.Warn("metrics server stopped", "component", "telemetry", "error", err)
			}
		}()
	}
	_ = e.sched.Run(ctx)
	e.feed.Stop()
	e.tween.Close()
	e.feed.Wait()
}
