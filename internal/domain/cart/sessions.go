package cart

import (
	"context"
	"sync"
	"time"
)

// Sessions owns the open carts, one per shopper session. Carts are opened
// lazily from the BlobStore and may be swept once idle; a swept cart is
// reloaded from its last saved blob on next use.
type Sessions struct {
	mu    sync.Mutex
	carts map[string]*Cart
	store BlobStore
	opts  []Option
}

func NewSessions(store BlobStore, opts ...Option) *Sessions {
	return &Sessions{
		carts: make(map[string]*Cart),
		store: store,
		opts:  opts,
	}
}

// Open returns the cart of sessionID, loading it on first use.
func (s *Sessions) Open(ctx context.Context, sessionID string) (*Cart, error) {
	s.mu.Lock()
	c, ok := s.carts[sessionID]
	s.mu.Unlock()
	if ok {
		c.touch()
		return c, nil
	}

	loaded, err := Open(ctx, sessionID, s.store, s.opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another request may have opened it while we were loading
	if existing, ok := s.carts[sessionID]; ok {
		return existing, nil
	}
	s.carts[sessionID] = loaded
	return loaded, nil
}

// Forget drops the in-memory cart of sessionID without touching the store.
func (s *Sessions) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// Sweep forgets carts idle since before cutoff and returns how many were dropped.
func (s *Sessions) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, c := range s.carts {
		if c.IdleSince().Before(cutoff) {
			delete(s.carts, id)
			n++
		}
	}
	return n
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
