// Package schedule implements the delay scheduler: deferred, cancellable
// callbacks on a single serialized loop.
//
// Every task belongs to an owner (a conversation id, a metric key, a feed).
// The owner index doubles as a disposal registry: CancelOwner drops all of
// an owner's outstanding work in one step, and a cancelled task never runs
// even if it was already due when it was cancelled.
//
// Callbacks run one at a time, in (fire time, scheduling order), and never
// while the scheduler's own lock is held, so a callback may schedule or
// cancel further work. Two drivers share that path:
//
//	Run(ctx)    real time, for the CLI and TUI.
//	Advance(d)  virtual time over a *clock.Manual, for tests.
package schedule

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/vyaapaar/dashcore/pkg/clock"
	"github.com/vyaapaar/dashcore/pkg/random"
)

// Task is one scheduled callback.
type Task struct {
	owner     string
	name      string
	at        time.Time
	seq       uint64
	every     time.Duration
	fn        func()
	index     int
	cancelled bool
}

// Owner returns the owner key the task was registered under.
func (t *Task) Owner() string { return t.owner }

// Name returns the task's descriptive name.
func (t *Task) Name() string { return t.name }

// Scheduler queues tasks by fire time. Safe for concurrent use.
type Scheduler struct {
	src clock.Source

	mu     sync.Mutex
	queue  taskQueue
	owners map[string]map[*Task]struct{}
	seq    uint64
	wake   chan struct{}

	// exec serializes callbacks across drivers.
	exec sync.Mutex
}

// New returns a Scheduler reading time from src.
func New(src clock.Source) *Scheduler {
	if src == nil {
		src = clock.Real{}
	}
	return &Scheduler{
		src:    src,
		owners: make(map[string]map[*Task]struct{}),
		wake:   make(chan struct{}, 1),
	}
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time { return s.src.Now() }

// After runs fn once, d from now.
func (s *Scheduler) After(owner, name string, d time.Duration, fn func()) *Task {
	if d < 0 {
		d = 0
	}
	return s.schedule(owner, name, s.src.Now().Add(d), 0, fn)
}

// AfterJitter runs fn once, base plus a uniform [0, jitter) offset from now.
func (s *Scheduler) AfterJitter(owner, name string, base, jitter time.Duration, rnd random.Source, fn func()) *Task {
	return s.After(owner, name, base+random.Duration(rnd, jitter), fn)
}

// Every runs fn each interval until cancelled. Fire times are computed
// from the previous planned time, so the cadence does not drift.
func (s *Scheduler) Every(owner, name string, interval time.Duration, fn func()) *Task {
	if interval <= 0 {
		panic("schedule: Every requires a positive interval")
	}
	return s.schedule(owner, name, s.src.Now().Add(interval), interval, fn)
}

// Post runs fn on the loop as soon as possible.
func (s *Scheduler) Post(owner, name string, fn func()) *Task {
	return s.After(owner, name, 0, fn)
}

func (s *Scheduler) schedule(owner, name string, at time.Time, every time.Duration, fn func()) *Task {
	s.mu.Lock()
	s.seq++
	t := &Task{owner: owner, name: name, at: at, seq: s.seq, every: every, fn: fn}
	heap.Push(&s.queue, t)
	set, ok := s.owners[owner]
	if !ok {
		set = make(map[*Task]struct{})
		s.owners[owner] = set
	}
	set[t] = struct{}{}
	s.mu.Unlock()
	s.signal()
	return t
}

// Cancel removes t. Returns false if t already ran (one-shot) or was
// already cancelled.
func (s *Scheduler) Cancel(t *Task) bool {
	if t == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.cancelled {
		return false
	}
	t.cancelled = true
	queued := t.index >= 0
	if queued {
		heap.Remove(&s.queue, t.index)
	}
	s.forgetLocked(t)
	return queued
}

// CancelOwner cancels every outstanding task registered under owner and
// returns how many were dropped.
func (s *Scheduler) CancelOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.owners[owner]
	n := 0
	for t := range set {
		t.cancelled = true
		if t.index >= 0 {
			heap.Remove(&s.queue, t.index)
			n++
		}
	}
	delete(s.owners, owner)
	return n
}

// Pending returns the number of outstanding tasks for owner.
func (s *Scheduler) Pending(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owners[owner])
}

// Len returns the number of queued tasks across all owners.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

func (s *Scheduler) forgetLocked(t *Task) {
	if set, ok := s.owners[t.owner]; ok {
		delete(set, t)
		if len(set) == 0 {
			delete(s.owners, t.owner)
		}
	}
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// popDue removes the earliest task due at or before now. Periodic tasks
// are re-queued at their next planned time. Returns the planned fire time
// of the popped run.
func (s *Scheduler) popDue(now time.Time) (*Task, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.Len() == 0 || s.queue[0].at.After(now) {
		return nil, time.Time{}
	}
	t := heap.Pop(&s.queue).(*Task)
	at := t.at
	if t.every > 0 {
		s.seq++
		t.at = t.at.Add(t.every)
		t.seq = s.seq
		heap.Push(&s.queue, t)
	} else {
		s.forgetLocked(t)
	}
	return t, at
}

// nextWait returns the delay until the earliest task, or false if idle.
func (s *Scheduler) nextWait(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.Len() == 0 {
		return 0, false
	}
	d := s.queue[0].at.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// fire runs t unless it was cancelled after being popped. Reports whether
// the callback ran.
func (s *Scheduler) fire(t *Task) bool {
	s.exec.Lock()
	defer s.exec.Unlock()
	s.mu.Lock()
	cancelled := t.cancelled
	s.mu.Unlock()
	if cancelled {
		return false
	}
	t.fn()
	return true
}

// Run drives the queue in real time until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		for {
			t, _ := s.popDue(s.src.Now())
			if t == nil {
				break
			}
			s.fire(t)
		}

		var timerC <-chan time.Time
		var timer *time.Timer
		if d, ok := s.nextWait(s.src.Now()); ok {
			timer = time.NewTimer(d)
			timerC = timer.C
		}
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-s.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Advance moves a manual clock forward by d, firing every task that comes
// due on the way. The clock reads each task's fire time while its callback
// runs. Returns the number of callbacks run. Panics unless the scheduler
// was built over a *clock.Manual.
func (s *Scheduler) Advance(d time.Duration) int {
	m, ok := s.src.(*clock.Manual)
	if !ok {
		panic("schedule: Advance requires a *clock.Manual source")
	}
	target := m.Now().Add(d)
	fired := 0
	for {
		t, at := s.popDue(target)
		if t == nil {
			break
		}
		m.Set(at)
		if s.fire(t) {
			fired++
		}
	}
	m.Set(target)
	return fired
}

// taskQueue is a min-heap ordered by clock.TotalOrderLess.
type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return clock.TotalOrderLess(q[i].at.UnixNano(), q[i].seq, q[j].at.UnixNano(), q[j].seq)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*Task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
