// Package cartsession tracks one cart and one checkout workflow per client
// session.
package cartsession

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/bistro/internal/domain/cart"
	"github.com/xenking/bistro/internal/domain/order"
)

// Session pairs a cart store with its submission workflow. The workflow is
// per-session so the in-flight guard scopes to one user's cart.
type Session struct {
	ID       string
	Cart     *cart.Store
	Checkout *order.Workflow

	lastUsed time.Time
}

// Registry holds live sessions keyed by id. Idle sessions are evicted by a
// background janitor so abandoned carts do not accumulate.
type Registry struct {
	orders order.Store
	ttl    time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a Registry whose sessions submit orders to the given
// store. Sessions untouched for ttl are eligible for eviction.
func NewRegistry(orders order.Store, ttl time.Duration) *Registry {
	return &Registry{
		orders:   orders,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with an empty cart and returns it.
func (r *Registry) Create() *Session {
	s := &Session{
		ID:       uuid.New().String(),
		Cart:     cart.NewStore(),
		Checkout: order.NewWorkflow(r.orders),
		lastUsed: time.Now(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given id, refreshing its idle timer.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastUsed = time.Now()
	return s, true
}

// Delete removes the session with the given id.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// evict removes sessions idle past the ttl.
func (r *Registry) evict(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if now.Sub(s.lastUsed) >= r.ttl {
			delete(r.sessions, id)
		}
	}
}

// StartJanitor launches a background goroutine evicting idle sessions every
// half ttl. It stops when ctx is cancelled.
func (r *Registry) StartJanitor(ctx context.Context) {
	interval := r.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.evict(now)
			}
		}
	}()
}
