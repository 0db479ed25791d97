package clock

import (
	"testing"
	"time"
)

func TestTickMonotonicallyIncreases(t *testing.T) {
	var c Clock
	prev := c.Value()
	for i := 0; i < 100; i++ {
		ts := c.Tick()
		if ts <= prev {
			t.Fatalf("Tick %d: got %d, want > %d", i, ts, prev)
		}
		prev = ts
	}
}

func TestTickStartsFromZero(t *testing.T) {
	var c Clock
	if v := c.Value(); v != 0 {
		t.Fatalf("new clock: got %d, want 0", v)
	}
	if ts := c.Tick(); ts != 1 {
		t.Fatalf("first Tick: got %d, want 1", ts)
	}
}

func TestSetThenTick(t *testing.T) {
	var c Clock
	c.Set(100)
	ts := c.Tick()
	if ts != 101 {
		t.Fatalf("Tick after Set(100): got %d, want 101", ts)
	}
}

func TestMonotonicStamp_StrictlyIncreasing(t *testing.T) {
	var m Monotonic
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := m.Stamp(base)
	b := m.Stamp(base)                   // same instant
	c := m.Stamp(base.Add(-time.Second)) // clock stepped backward
	if !b.After(a) || !c.After(b) {
		t.Fatalf("stamps not strictly increasing: %v %v %v", a, b, c)
	}
	d := m.Stamp(base.Add(time.Hour))
	if !d.Equal(base.Add(time.Hour)) {
		t.Fatalf("a later wall time should be used as-is, got %v", d)
	}
}

func TestMonotonicObserve(t *testing.T) {
	var m Monotonic
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Observe(base)
	if got := m.Stamp(base.Add(-time.Minute)); !got.After(base) {
		t.Fatalf("stamp after Observe should follow observed time, got %v", got)
	}
}

func TestTotalOrderLess_DifferentTimes(t *testing.T) {
	if !TotalOrderLess(1, 9, 2, 1) {
		t.Fatal("expected (1,9) < (2,1)")
	}
	if TotalOrderLess(2, 1, 1, 9) {
		t.Fatal("expected (2,1) NOT < (1,9)")
	}
}

func TestTotalOrderLess_SameTime_TieBreakBySeq(t *testing.T) {
	if !TotalOrderLess(5, 1, 5, 2) {
		t.Fatal("expected (5,1) < (5,2)")
	}
	if TotalOrderLess(5, 2, 5, 1) {
		t.Fatal("expected (5,2) NOT < (5,1)")
	}
	if TotalOrderLess(5, 1, 5, 1) {
		t.Fatal("expected (5,1) NOT < (5,1): strict less")
	}
}

func TestManualClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)
	m.Advance(time.Second)
	if got := m.Now(); !got.Equal(start.Add(time.Second)) {
		t.Fatalf("after Advance: got %v", got)
	}
	m.Set(start) // backward: ignored
	if got := m.Now(); !got.Equal(start.Add(time.Second)) {
		t.Fatalf("Set backward should be ignored, got %v", got)
	}
	m.Advance(-time.Second)
	if got := m.Now(); !got.Equal(start.Add(time.Second)) {
		t.Fatalf("negative Advance should be ignored, got %v", got)
	}
}
