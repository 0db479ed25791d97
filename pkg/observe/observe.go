// Package observe is a small versioned publish/subscribe hub. Producers
// publish whole-state values tagged with a version; a value older than the
// last delivered one is dropped, so observers never see state regress even
// when publishes race between goroutines.
package observe

import "sync"

// Hub fans values of type T out to subscribers.
type Hub[T any] struct {
	mu      sync.Mutex
	subs    map[int]func(T)
	next    int
	emitted uint64
	latest  T
	has     bool
}

// NewHub returns an empty hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[int]func(T))}
}

// Subscribe registers fn. If a value has already been published, fn
// receives it immediately. The returned func unsubscribes.
func (h *Hub[T]) Subscribe(fn func(T)) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	latest, has := h.latest, h.has
	if has {
		fn(latest)
	}
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Publish delivers v to every subscriber unless a value with a version at
// least as new was already delivered. Reports whether v was delivered.
// Subscribers run under the hub lock and must not call back into it.
func (h *Hub[T]) Publish(version uint64, v T) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.has && version <= h.emitted {
		return false
	}
	h.emitted = version
	h.latest = v
	h.has = true
	for _, fn := range h.subs {
		fn(v)
	}
	return true
}

// Latest returns the last delivered value.
func (h *Hub[T]) Latest() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.has
}

// Len returns the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
