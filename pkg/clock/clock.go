// Package clock provides the ordering primitives shared by conversations
// and the scheduler.
//
// A conversation log must stay strictly ordered even when wall time is
// coarse or steps backward, so every append takes two values:
//
//	Seq:       a logical counter, incremented before each append.
//	CreatedAt: a wall-clock stamp clamped to be strictly after the
//	           previous stamp issued by the same Monotonic.
//
// TotalOrderLess orders scheduled work by (fire time, scheduling sequence),
// giving every run the same deterministic order for ties.
//
// Note: Clock and Monotonic are not goroutine-safe. Each is owned by a
// single conversation and only touched under that conversation's lock.
package clock

import "time"

// Clock is a logical sequence counter. Not goroutine-safe; see package doc.
type Clock struct {
	ts int64
}

// Tick increments the clock before an append. Returns the new value.
func (c *Clock) Tick() int64 {
	c.ts++
	return c.ts
}

// Value returns the current clock value without advancing it.
func (c *Clock) Value() int64 { return c.ts }

// Set moves the clock to v. Used when seeded history already carries
// sequence numbers, so later appends continue after them.
func (c *Clock) Set(v int64) { c.ts = v }

// Monotonic issues wall-clock stamps that never repeat or regress.
type Monotonic struct {
	last time.Time
}

// Stamp returns now, or one nanosecond after the previous stamp if now is
// not strictly later.
func (m *Monotonic) Stamp(now time.Time) time.Time {
	if !now.After(m.last) {
		now = m.last.Add(time.Nanosecond)
	}
	m.last = now
	return now
}

// Observe records t as issued so later stamps come after it.
func (m *Monotonic) Observe(t time.Time) {
	if t.After(m.last) {
		m.last = t
	}
}

// TotalOrderLess defines a deterministic total order over scheduled work.
// Work A runs before work B if:
//
//	atA < atB, or
//	atA == atB and seqA < seqB
func TotalOrderLess(atA int64, seqA uint64, atB int64, seqB uint64) bool {
	if atA != atB {
		return atA < atB
	}
	return seqA < seqB
}
