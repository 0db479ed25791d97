package tween

import (
	"testing"
	"time"

	"github.com/vyaapaar/dashcore/pkg/clock"
	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/schedule"
)

func newEngine(t *testing.T, initial model.Snapshot, opts ...Option) (*Engine, *schedule.Scheduler) {
	t.Helper()
	sched := schedule.New(clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	return New(sched, initial, opts...), sched
}

func record(e *Engine, key string) *[]int64 {
	var vals []int64
	first := true
	e.Subscribe(func(f Frame) {
		if first {
			first = false
			return
		}
		vals = append(vals, f.Values[key])
	})
	return &vals
}

func TestRevenueScenario(t *testing.T) {
	e, sched := newEngine(t, model.Snapshot{"revenue": 100})
	vals := record(e, "revenue")

	e.Retarget(model.Snapshot{"revenue": 160})
	if e.Phase("revenue") != Animating {
		t.Fatal("expected animating after retarget")
	}
	sched.Advance(time.Second)

	if len(*vals) != 60 {
		t.Fatalf("got %d frames, want 60", len(*vals))
	}
	prev := int64(100)
	for i, v := range *vals {
		if v != prev+1 {
			t.Fatalf("frame %d = %d, want %d", i, v, prev+1)
		}
		prev = v
	}
	if got := e.Displayed()["revenue"]; got != 160 {
		t.Fatalf("final = %d, want 160", got)
	}
	if e.Phase("revenue") != Idle {
		t.Fatal("expected idle after last step")
	}
	if sched.Len() != 0 {
		t.Fatalf("%d tasks left", sched.Len())
	}
}

func TestConvergesExactly(t *testing.T) {
	e, sched := newEngine(t, model.Snapshot{"a": 0, "b": 1000, "c": 5})
	target := model.Snapshot{"a": 7, "b": -3, "c": 123456789}
	e.Retarget(target)
	sched.Advance(999 * time.Millisecond)
	if e.Displayed().Equal(target) {
		t.Fatal("converged before the duration elapsed")
	}
	sched.Advance(time.Millisecond)
	if got := e.Displayed(); !got.Equal(target) {
		t.Fatalf("displayed = %v, want %v", got, target)
	}
}

func TestSupersedeStartsFromDisplayed(t *testing.T) {
	e, sched := newEngine(t, model.Snapshot{"orders": 0})
	e.Retarget(model.Snapshot{"orders": 1000})
	sched.Advance(500 * time.Millisecond)
	mid := e.Displayed()["orders"]
	if mid != 500 {
		t.Fatalf("midpoint = %d, want 500", mid)
	}

	vals := record(e, "orders")
	e.Retarget(model.Snapshot{"orders": 200})
	if e.Phase("orders") != Animating {
		t.Fatal("supersede should stay animating")
	}
	sched.Advance(2 * time.Second)

	prev := mid
	for i, v := range *vals {
		if v > prev || v < 200 {
			t.Fatalf("frame %d = %d, not on the path %d -> 200", i, v, mid)
		}
		if v == 1000 {
			t.Fatal("displayed the superseded target")
		}
		prev = v
	}
	if got := e.Displayed()["orders"]; got != 200 {
		t.Fatalf("final = %d, want 200", got)
	}
}

func TestEqualTargetWhileIdleIsNoop(t *testing.T) {
	e, sched := newEngine(t, model.Snapshot{"revenue": 42})
	e.Retarget(model.Snapshot{"revenue": 42})
	if sched.Len() != 0 || e.Phase("revenue") != Idle {
		t.Fatal("equal target started an animation")
	}
}

func TestSameTargetMidFlightKeepsAnimation(t *testing.T) {
	e, sched := newEngine(t, model.Snapshot{"revenue": 0})
	e.Retarget(model.Snapshot{"revenue": 600})
	sched.Advance(250 * time.Millisecond)
	pending := sched.Len()
	e.Retarget(model.Snapshot{"revenue": 600})
	if sched.Len() != pending {
		t.Fatalf("pending %d -> %d, animation restarted", pending, sched.Len())
	}
	sched.Advance(750 * time.Millisecond)
	if got := e.Displayed()["revenue"]; got != 600 {
		t.Fatalf("final = %d", got)
	}
}

func TestRetargetBackToDisplayedGoesIdle(t *testing.T) {
	e, sched := newEngine(t, model.Snapshot{"x": 0})
	e.Retarget(model.Snapshot{"x": 60})
	sched.Advance(500 * time.Millisecond)
	e.Retarget(model.Snapshot{"x": 30})
	if e.Phase("x") != Idle || sched.Len() != 0 {
		t.Fatal("retarget to the displayed value should cancel the animation")
	}
}

func TestMissingAndAbsentKeys(t *testing.T) {
	e, sched := newEngine(t, model.Snapshot{"kept": 9})
	e.Retarget(model.Snapshot{"fresh": 30})
	sched.Advance(time.Second)
	d := e.Displayed()
	if d["fresh"] != 30 || d["kept"] != 9 {
		t.Fatalf("displayed = %v", d)
	}
}

func TestCloseStopsUpdates(t *testing.T) {
	e, sched := newEngine(t, model.Snapshot{"revenue": 0})
	e.Retarget(model.Snapshot{"revenue": 100, "orders": 10})
	sched.Advance(100 * time.Millisecond)

	vals := record(e, "revenue")
	before := e.Displayed()
	e.Close()
	if sched.Len() != 0 {
		t.Fatalf("%d tasks survived Close", sched.Len())
	}
	sched.Advance(time.Second)
	if len(*vals) != 0 {
		t.Fatalf("observed %d frames after Close", len(*vals))
	}
	if !e.Displayed().Equal(before) {
		t.Fatal("displayed changed after Close")
	}
	e.Retarget(model.Snapshot{"revenue": 1})
	if sched.Len() != 0 {
		t.Fatal("Retarget after Close scheduled work")
	}
}

func TestCustomStepsAndDuration(t *testing.T) {
	e, sched := newEngine(t, model.Snapshot{"v": 0}, WithSteps(4), WithDuration(400*time.Millisecond))
	e.Retarget(model.Snapshot{"v": 10})
	want := []int64{3, 5, 8, 10}
	for i, w := range want {
		sched.Advance(100 * time.Millisecond)
		if got := e.Displayed()["v"]; got != w {
			t.Fatalf("step %d = %d, want %d", i+1, got, w)
		}
	}
}

func TestFrameListsAnimatingKeys(t *testing.T) {
	e, sched := newEngine(t, model.Snapshot{"a": 0, "b": 0})
	var last Frame
	e.Subscribe(func(f Frame) { last = f })
	e.Retarget(model.Snapshot{"a": 10})
	sched.Advance(10 * time.Millisecond)
	sched.Advance(10 * time.Millisecond)
	if len(last.Animating) != 1 || last.Animating[0] != "a" {
		t.Fatalf("animating = %v", last.Animating)
	}
	sched.Advance(time.Second)
	if len(last.Animating) != 0 {
		t.Fatalf("animating after finish = %v", last.Animating)
	}
}
