package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vyaapaar/dashcore/pkg/clock"
	"github.com/vyaapaar/dashcore/pkg/random"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newManual(t *testing.T) (*Scheduler, *clock.Manual) {
	t.Helper()
	m := clock.NewManual(epoch)
	return New(m), m
}

func TestAfterFiresAtDelay(t *testing.T) {
	s, m := newManual(t)
	var firedAt time.Time
	s.After("conv", "sent", time.Second, func() { firedAt = m.Now() })

	if n := s.Advance(999 * time.Millisecond); n != 0 {
		t.Fatalf("fired %d tasks before delay elapsed", n)
	}
	if n := s.Advance(time.Millisecond); n != 1 {
		t.Fatalf("expected 1 task at 1s, fired %d", n)
	}
	if !firedAt.Equal(epoch.Add(time.Second)) {
		t.Fatalf("callback saw time %v, want %v", firedAt, epoch.Add(time.Second))
	}
}

func TestFireOrderByTimeThenScheduling(t *testing.T) {
	s, _ := newManual(t)
	var order []string
	s.After("o", "c", 2*time.Second, func() { order = append(order, "c") })
	s.After("o", "a", time.Second, func() { order = append(order, "a") })
	s.After("o", "b", time.Second, func() { order = append(order, "b") })

	s.Advance(5 * time.Second)
	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestCallbackCanScheduleMoreWork(t *testing.T) {
	s, m := newManual(t)
	var times []time.Duration
	s.After("o", "first", time.Second, func() {
		times = append(times, m.Now().Sub(epoch))
		s.After("o", "second", time.Second, func() {
			times = append(times, m.Now().Sub(epoch))
		})
	})
	if n := s.Advance(3 * time.Second); n != 2 {
		t.Fatalf("fired %d, want 2", n)
	}
	if times[0] != time.Second || times[1] != 2*time.Second {
		t.Fatalf("fire offsets = %v, want [1s 2s]", times)
	}
}

func TestCancel(t *testing.T) {
	s, _ := newManual(t)
	ran := false
	task := s.After("o", "x", time.Second, func() { ran = true })
	if !s.Cancel(task) {
		t.Fatal("Cancel of queued task should report true")
	}
	if s.Cancel(task) {
		t.Fatal("second Cancel should report false")
	}
	s.Advance(2 * time.Second)
	if ran {
		t.Fatal("cancelled task ran")
	}
	if s.Cancel(nil) {
		t.Fatal("Cancel(nil) should report false")
	}
}

func TestCancelOwnerDropsOnlyThatOwner(t *testing.T) {
	s, _ := newManual(t)
	var ran []string
	s.After("a", "1", time.Second, func() { ran = append(ran, "a1") })
	s.After("a", "2", 2*time.Second, func() { ran = append(ran, "a2") })
	s.After("b", "1", time.Second, func() { ran = append(ran, "b1") })

	if got := s.Pending("a"); got != 2 {
		t.Fatalf("Pending(a) = %d, want 2", got)
	}
	if n := s.CancelOwner("a"); n != 2 {
		t.Fatalf("CancelOwner(a) = %d, want 2", n)
	}
	if got := s.Pending("a"); got != 0 {
		t.Fatalf("Pending(a) after cancel = %d", got)
	}
	s.Advance(3 * time.Second)
	if len(ran) != 1 || ran[0] != "b1" {
		t.Fatalf("ran = %v, want [b1]", ran)
	}
}

func TestCancelFromInsideEarlierCallback(t *testing.T) {
	s, _ := newManual(t)
	ran := false
	s.After("o", "killer", time.Second, func() { s.CancelOwner("victim") })
	s.After("victim", "late", time.Second, func() { ran = true })
	s.Advance(2 * time.Second)
	if ran {
		t.Fatal("task cancelled by an earlier callback at the same instant still ran")
	}
}

func TestEveryKeepsCadence(t *testing.T) {
	s, m := newManual(t)
	var offsets []time.Duration
	task := s.Every("feed", "tick", 5*time.Second, func() {
		offsets = append(offsets, m.Now().Sub(epoch))
	})
	s.Advance(16 * time.Second)
	want := []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}
	if len(offsets) != len(want) {
		t.Fatalf("offsets = %v, want %v", offsets, want)
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Fatalf("offsets = %v, want %v", offsets, want)
		}
	}
	s.Cancel(task)
	s.Advance(10 * time.Second)
	if len(offsets) != 3 {
		t.Fatalf("periodic task kept firing after Cancel: %v", offsets)
	}
	if s.Len() != 0 {
		t.Fatalf("queue not empty after cancel: %d", s.Len())
	}
}

func TestEveryRejectsNonPositive(t *testing.T) {
	s, _ := newManual(t)
	defer func() {
		if recover() == nil {
			t.Fatal("Every(0) should panic")
		}
	}()
	s.Every("o", "bad", 0, func() {})
}

func TestAfterJitterWithinBounds(t *testing.T) {
	s, m := newManual(t)
	var at time.Duration
	s.AfterJitter("o", "reply", 2500*time.Millisecond, 500*time.Millisecond, random.NewSequence(300), func() {
		at = m.Now().Sub(epoch)
	})
	s.Advance(3 * time.Second)
	if at != 2800*time.Millisecond {
		t.Fatalf("jittered fire at %v, want 2.8s", at)
	}
}

func TestPostRunsOnNextAdvance(t *testing.T) {
	s, _ := newManual(t)
	ran := false
	s.Post("o", "now", func() { ran = true })
	if n := s.Advance(0); n != 1 || !ran {
		t.Fatalf("Post did not run on Advance(0): n=%d ran=%v", n, ran)
	}
}

func TestAdvancePanicsOnRealClock(t *testing.T) {
	s := New(clock.Real{})
	defer func() {
		if recover() == nil {
			t.Fatal("Advance on a real clock should panic")
		}
	}()
	s.Advance(time.Second)
}

func TestRunFiresInRealTime(t *testing.T) {
	s := New(clock.Real{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	s.After("o", "x", 10*time.Millisecond, func() { close(done) })

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not fire under Run")
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
}

func TestRunPicksUpWorkScheduledWhileIdle(t *testing.T) {
	s := New(clock.Real{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	time.Sleep(5 * time.Millisecond)
	done := make(chan struct{})
	s.After("o", "late", time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("idle loop did not wake for new work")
	}
}

func TestCallbacksNeverInterleave(t *testing.T) {
	s, _ := newManual(t)
	var mu sync.Mutex
	active := 0
	maxActive := 0
	for i := 0; i < 20; i++ {
		s.After("o", "n", time.Duration(i%3)*time.Millisecond, func() {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	s.Advance(time.Second)
	if maxActive != 1 {
		t.Fatalf("callbacks overlapped: max concurrency %d", maxActive)
	}
}
