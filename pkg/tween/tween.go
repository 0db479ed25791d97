// Package tween is the metrics interpolation engine. It owns the displayed
// snapshot and, whenever an authoritative snapshot differs from it, walks
// each changed key toward its target in a fixed number of steps over a
// fixed duration.
//
// Every key is an independent idle -> animating -> idle machine. A new
// target for a key that is still animating supersedes the old animation
// and restarts from the value currently displayed, so the display never
// jumps. The last step always writes the target exactly.
package tween

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/observe"
	"github.com/vyaapaar/dashcore/pkg/schedule"
)

const (
	DefaultSteps    = 60
	DefaultDuration = time.Second
)

// Phase is a key's animation state.
type Phase int

const (
	Idle Phase = iota
	Animating
)

func (p Phase) String() string {
	if p == Animating {
		return "animating"
	}
	return "idle"
}

// Frame is one published view of the displayed snapshot.
type Frame struct {
	Version   uint64
	Values    model.Snapshot
	Animating []string
}

type Option func(*Engine)

// WithSteps sets the number of steps per animation.
func WithSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.steps = n
		}
	}
}

// WithDuration sets the length of one animation.
func WithDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.duration = d
		}
	}
}

// WithName namespaces the engine's scheduler owners.
func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

type animation struct {
	from, to int64
}

// Engine animates a displayed snapshot. Safe for concurrent use.
type Engine struct {
	name     string
	sched    *schedule.Scheduler
	steps    int
	duration time.Duration
	log      *slog.Logger

	mu            sync.Mutex
	displayed     model.Snapshot
	authoritative model.Snapshot
	anims         map[string]*animation
	version       uint64
	closed        bool

	hub *observe.Hub[Frame]
}

// New returns an engine displaying initial.
func New(sched *schedule.Scheduler, initial model.Snapshot, opts ...Option) *Engine {
	e := &Engine{
		name:          "metrics",
		sched:         sched,
		steps:         DefaultSteps,
		duration:      DefaultDuration,
		displayed:     initial.Clone(),
		authoritative: initial.Clone(),
		anims:         make(map[string]*animation),
		hub:           observe.NewHub[Frame](),
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.log = e.log.With("component", "tween", "engine", e.name)
	e.version = 1
	e.hub.Publish(e.version, e.frameLocked())
	return e
}

func (e *Engine) owner(key string) string {
	return "tween:" + e.name + ":" + key
}

// Retarget starts animating every key of authoritative whose value differs
// from what is displayed. Keys not yet displayed animate from zero; keys
// absent from authoritative are left alone.
func (e *Engine) Retarget(authoritative model.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	for _, key := range authoritative.Keys() {
		to := authoritative[key]
		e.authoritative[key] = to
		cur := e.displayed[key]

		a, animating := e.anims[key]
		if animating && a.to == to {
			continue
		}
		if animating {
			e.sched.CancelOwner(e.owner(key))
			delete(e.anims, key)
		}
		if cur == to {
			continue
		}
		e.startLocked(key, cur, to)
	}
}

func (e *Engine) startLocked(key string, from, to int64) {
	a := &animation{from: from, to: to}
	e.anims[key] = a
	owner := e.owner(key)
	n := e.steps
	for i := 1; i <= n; i++ {
		at := time.Duration(int64(e.duration) * int64(i) / int64(n))
		e.sched.After(owner, "step", at, func() { e.step(key, a, i) })
	}
	e.log.Debug("animation started", "key", key, "from", from, "to", to)
}

func (e *Engine) step(key string, a *animation, i int) {
	e.mu.Lock()
	if e.closed || e.anims[key] != a {
		e.mu.Unlock()
		return
	}
	v := a.to
	if i < e.steps {
		v = a.from + int64(math.Round(float64(a.to-a.from)*float64(i)/float64(e.steps)))
	} else {
		delete(e.anims, key)
	}
	e.displayed[key] = v
	e.version++
	f := e.frameLocked()
	e.mu.Unlock()
	e.hub.Publish(f.Version, f)
}

// Displayed returns a copy of the displayed snapshot.
func (e *Engine) Displayed() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.displayed.Clone()
}

// Authoritative returns the last target set for each key.
func (e *Engine) Authoritative() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.authoritative.Clone()
}

// Phase reports whether key is currently animating.
func (e *Engine) Phase(key string) Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.anims[key]; ok {
		return Animating
	}
	return Idle
}

// Subscribe registers fn for displayed-value changes. fn receives the
// current frame immediately.
func (e *Engine) Subscribe(fn func(Frame)) func() {
	return e.hub.Subscribe(fn)
}

// Close cancels every in-flight animation. Displayed values stay where
// they are.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for key := range e.anims {
		e.sched.CancelOwner(e.owner(key))
	}
	e.anims = map[string]*animation{}
}

func (e *Engine) frameLocked() Frame {
	f := Frame{Version: e.version, Values: e.displayed.Clone()}
	for k := range e.anims {
		f.Animating = append(f.Animating, k)
	}
	sort.Strings(f.Animating)
	return f
}
