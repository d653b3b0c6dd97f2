// Package limiter gates the expensive uncached analysis path with a
// per-client rolling window counter. Slots are refundable: a request that
// never reached the costly reasoning step (e.g. an unknown ticker) gives its
// slot back.
package limiter

import (
	"sync"
	"time"
)

type window struct {
	count   int
	started time.Time
}

// ClientLimiter counts uncached requests per client identity within a rolling
// window. The increment-then-compare is done under one lock so a burst of
// concurrent requests cannot all pass the limit check together.
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

// New creates a limiter allowing `limit` requests per client per `period`.
func New(limit int, period time.Duration) *ClientLimiter {
	return &ClientLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow records one request attempt for the client and reports whether it is
// within the limit. Rejected attempts still count against the window.
func (l *ClientLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	// The window is anchored at the first request and does not slide on
	// later ones, so a blocked client frees up after at most one period.
	w, ok := l.clients[client]
	if !ok || now.Sub(w.started) >= l.period {
		w = &window{started: now}
		l.clients[client] = w
	}
	w.count++
	return w.count <= l.limit
}

// Refund returns a previously counted slot, used when the request turned out
// to be a benign user error that never consumed the protected resource.
func (l *ClientLimiter) Refund(client string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[client]
	if !ok {
		return
	}
	if w.count > 0 {
		w.count--
	}
	if w.count == 0 {
		delete(l.clients, client)
	}
}

// Count reports the client's current window count.
func (l *ClientLimiter) Count(client string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[client]
	if !ok || l.now().Sub(w.started) >= l.period {
		return 0
	}
	return w.count
}

// pruneLocked drops expired windows so the map stays bounded by active clients.
func (l *ClientLimiter) pruneLocked(now time.Time) {
	for client, w := range l.clients {
		if now.Sub(w.started) >= l.period {
			delete(l.clients, client)
		}
	}
}
