package random

import (
	"testing"
	"time"
)

func TestSequenceCyclesAndWraps(t *testing.T) {
	s := NewSequence(0, 1, 7)
	got := []int{s.IntN(5), s.IntN(5), s.IntN(5), s.IntN(5)}
	want := []int{0, 1, 2, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("draw %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSequenceNegativeValues(t *testing.T) {
	s := NewSequence(-1)
	if v := s.IntN(3); v != 2 {
		t.Fatalf("IntN(3) with -1: got %d, want 2", v)
	}
}

func TestSeededInRange(t *testing.T) {
	s := New(42)
	for i := 0; i < 1000; i++ {
		if v := s.IntN(10); v < 0 || v >= 10 {
			t.Fatalf("IntN(10) out of range: %d", v)
		}
	}
}

func TestSeededDeterministic(t *testing.T) {
	a, b := New(7), New(7)
	for i := 0; i < 50; i++ {
		if x, y := a.IntN(1000), b.IntN(1000); x != y {
			t.Fatalf("same seed diverged at %d: %d vs %d", i, x, y)
		}
	}
}

func TestBetweenInclusive(t *testing.T) {
	if v := Between(NewSequence(0), 50, 149); v != 50 {
		t.Fatalf("low end: got %d", v)
	}
	if v := Between(NewSequence(99), 50, 149); v != 149 {
		t.Fatalf("high end: got %d", v)
	}
	if v := Between(NewSequence(3), 5, 5); v != 5 {
		t.Fatalf("degenerate range: got %d", v)
	}
}

func TestDuration(t *testing.T) {
	if d := Duration(NewSequence(250), 500*time.Millisecond); d != 250*time.Millisecond {
		t.Fatalf("got %v, want 250ms", d)
	}
	if d := Duration(NewSequence(250), 0); d != 0 {
		t.Fatalf("zero max: got %v", d)
	}
}
