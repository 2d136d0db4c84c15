package sessionhub

// Package sessionhub fans session events out to in-process subscribers. Gateway
// adapters embed a Hub to implement ports.AuthGateway.Subscribe.

import (
	"sync"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
)

// Hub keeps subscribers in registration order.
type Hub struct {
	mu        sync.Mutex
	nextID    int
	listeners []listener
}

type listener struct {
	id int
	fn func(domainauth.SessionEvent)
}

// Subscribe registers fn and returns a function that removes it. The returned
// function is safe to call more than once.
func (h *Hub) Subscribe(fn func(domainauth.SessionEvent)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners = append(h.listeners, listener{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, l := range h.listeners {
		if l.id == id {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			return
		}
	}
}

// Emit delivers ev to every subscriber on the calling goroutine, in
// registration order. A subscriber that blocks holds up Emit and every
// subscriber after it; that is the backpressure a queueing subscriber such as
// the session synchronizer applies when its inbox is full.
func (h *Hub) Emit(ev domainauth.SessionEvent) {
	h.mu.Lock()
	fns := make([]func(domainauth.SessionEvent), len(h.listeners))
	for i, l := range h.listeners {
		fns[i] = l.fn
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len reports the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
