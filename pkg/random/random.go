// Package random provides the injectable random source used for reply
// selection, simulated cost, delay jitter and simulated metric activity.
package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source draws uniform integers in [0, n). n must be positive.
type Source interface {
	IntN(n int) int
}

// Seeded is a goroutine-safe PCG source.
type Seeded struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a Seeded source. A zero seed is replaced by the current time.
func New(seed int64) *Seeded {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeded{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))}
}

// IntN implements Source.
func (s *Seeded) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Sequence replays fixed values, reduced modulo n, cycling when exhausted.
// Tests use it to script selections.
type Sequence struct {
	mu     sync.Mutex
	values []int
	pos    int
}

// NewSequence returns a Sequence over values. An empty sequence always
// yields 0.
func NewSequence(values ...int) *Sequence {
	return &Sequence{values: values}
}

// IntN implements Source.
func (s *Sequence) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Between returns a uniform integer in [lo, hi].
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Duration returns a uniform duration in [0, max).
func Duration(src Source, max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	ms := int(max / time.Millisecond)
	if ms <= 0 {
		return 0
	}
	return time.Duration(src.IntN(ms)) * time.Millisecond
}
