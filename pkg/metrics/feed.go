package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/random"
	"github.com/vyaapaar/dashcore/pkg/schedule"
)

const feedOwner = "metrics-feed"

// Store is the subset of the data store the feed uses.
type Store interface {
	RecordSale(ctx context.Context, amount int64, customerID string, at time.Time) (int64, error)
	RecordUsage(ctx context.Context, surface model.Surface, tokens int64, at time.Time) (int64, error)
	Totals(ctx context.Context, dayStart, activeSince, usageSince time.Time) (model.Totals, error)
}

// Publisher receives each authoritative snapshot.
type Publisher interface {
	Publish(model.Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(model.Snapshot)

// Publish implements Publisher.
func (f PublisherFunc) Publish(s model.Snapshot) { f(s) }

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithInterval sets the refresh cadence. Default 5s.
func WithInterval(d time.Duration) FeedOption {
	return func(f *Feed) {
		if d > 0 {
			f.interval = d
		}
	}
}

// WithSimulation makes each tick record random shop activity before
// reading totals.
func WithSimulation(on bool) FeedOption {
	return func(f *Feed) { f.simulate = on }
}

func WithRandom(rnd random.Source) FeedOption {
	return func(f *Feed) { f.rnd = rnd }
}

func WithBudget(b Budget) FeedOption {
	return func(f *Feed) { f.budget = b }
}

// WithTimeout bounds the store I/O of one tick. Default 2s.
func WithTimeout(d time.Duration) FeedOption {
	return func(f *Feed) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) FeedOption {
	return func(f *Feed) { f.log = l }
}

// WithPublishers registers publishers at construction.
func WithPublishers(p ...Publisher) FeedOption {
	return func(f *Feed) { f.pubs = append(f.pubs, p...) }
}

// Feed is the periodic authoritative metrics source.
type Feed struct {
	store    Store
	sched    *schedule.Scheduler
	rnd      random.Source
	budget   Budget
	interval time.Duration
	timeout  time.Duration
	simulate bool
	log      *slog.Logger

	mu       sync.Mutex
	pubs     []Publisher
	latest   model.Snapshot
	ctx      context.Context
	gen      uint64 // bumped by Start and Stop; refreshes from an older gen never publish
	inflight bool
	pending  sync.WaitGroup
}

// NewFeed returns a feed over store, driven by sched.
func NewFeed(store Store, sched *schedule.Scheduler, opts ...FeedOption) *Feed {
	f := &Feed{
		store:    store,
		sched:    sched,
		budget:   DefaultBudget(),
		interval: 5 * time.Second,
		timeout:  2 * time.Second,
	}
	for _, o := range opts {
		o(f)
	}
	if f.rnd == nil {
		f.rnd = random.New(0)
	}
	if f.log == nil {
		f.log = slog.Default()
	}
	f.log = f.log.With("component", "feed")
	return f
}

// AddPublisher registers p for subsequent snapshots.
func (f *Feed) AddPublisher(p Publisher) {
	f.mu.Lock()
	f.pubs = append(f.pubs, p)
	f.mu.Unlock()
}

// Latest returns the last published snapshot.
func (f *Feed) Latest() model.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest.Clone()
}

// Start schedules an immediate refresh and one every interval until Stop
// or ctx is done.
func (f *Feed) Start(ctx context.Context) {
	f.mu.Lock()
	f.ctx = ctx
	f.gen++
	f.mu.Unlock()
	f.sched.Post(feedOwner, "refresh", f.kick)
	f.sched.Every(feedOwner, "refresh", f.interval, f.kick)
	f.log.Debug("feed started", "interval", f.interval, "simulate", f.simulate)
}

// Stop cancels future refreshes. A refresh already reading the store
// finishes but its snapshot is discarded.
func (f *Feed) Stop() {
	f.mu.Lock()
	f.gen++
	f.mu.Unlock()
	n := f.sched.CancelOwner(feedOwner)
	f.log.Debug("feed stopped", "cancelled_tasks", n)
}

// kick runs one refresh off the loop. Overlapping refreshes are skipped.
func (f *Feed) kick() {
	f.mu.Lock()
	ctx := f.ctx
	if f.inflight || ctx == nil || ctx.Err() != nil {
		f.mu.Unlock()
		return
	}
	f.inflight = true
	gen := f.gen
	f.mu.Unlock()

	f.pending.Add(1)
	go func() {
		defer f.pending.Done()
		snap, err := f.Tick(ctx)
		f.mu.Lock()
		f.inflight = false
		live := f.gen == gen
		f.mu.Unlock()
		if err != nil {
			f.log.Warn("metrics refresh failed", "error", err)
			return
		}
		if !live {
			f.log.Debug("dropping refresh from stopped feed")
			return
		}
		f.sched.Post(feedOwner, "publish", func() {
			if f.current(gen) {
				f.Publish(snap)
			}
		})
	}()
}

func (f *Feed) current(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen == gen
}

// Tick performs one refresh synchronously: simulate activity if enabled,
// then read totals. It does not publish.
func (f *Feed) Tick(ctx context.Context) (model.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	now := f.sched.Now()
	if f.simulate {
		if err := f.simulateActivity(ctx, now); err != nil {
			return nil, err
		}
	}
	periodStart, err := f.budget.PeriodStart(now)
	if err != nil {
		return nil, err
	}
	totals, err := f.store.Totals(ctx, DayStart(now), now.AddDate(0, 0, -30), periodStart)
	if err != nil {
		return nil, err
	}
	return FromTotals(totals), nil
}

// simulateActivity records at most one sale of U[1,1000) and U[0,50)
// tokens of background channel usage.
func (f *Feed) simulateActivity(ctx context.Context, now time.Time) error {
	if f.rnd.IntN(2) == 1 {
		amount := int64(random.Between(f.rnd, 1, 999))
		customer := fmt.Sprintf("cust-%03d", random.Between(f.rnd, 1, 200))
		if _, err := f.store.RecordSale(ctx, amount, customer, now); err != nil {
			return fmt.Errorf("simulate sale: %w", err)
		}
	}
	if tokens := f.rnd.IntN(50); tokens > 0 {
		if _, err := f.store.RecordUsage(ctx, model.SurfaceChannel, int64(tokens), now); err != nil {
			return fmt.Errorf("simulate usage: %w", err)
		}
	}
	return nil
}

// Publish hands snap to every publisher and remembers it as latest.
func (f *Feed) Publish(snap model.Snapshot) {
	f.mu.Lock()
	f.latest = snap.Clone()
	pubs := append([]Publisher(nil), f.pubs...)
	f.mu.Unlock()
	for _, p := range pubs {
		p.Publish(snap.Clone())
	}
}

// RecordUsage writes a reply's token cost to the store in the background.
// Use Wait to block until pending writes finish.
func (f *Feed) RecordUsage(surface model.Surface, tokens int) {
	if tokens <= 0 {
		return
	}
	at := f.sched.Now()
	f.pending.Add(1)
	go func() {
		defer f.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		if _, err := f.store.RecordUsage(ctx, surface, int64(tokens), at); err != nil {
			f.log.Warn("record usage failed", "surface", string(surface), "tokens", tokens, "error", err)
		}
	}()
}

// Wait blocks until every RecordUsage write and in-flight refresh has
// finished.
func (f *Feed) Wait() { f.pending.Wait() }

// DayStart returns local midnight of t's day.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
