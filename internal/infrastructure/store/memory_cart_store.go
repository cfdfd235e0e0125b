package store

import (
	"context"
	"sync"
	"time"
)

type memoryBlob struct {
	data      []byte
	updatedAt time.Time
}

// MemoryCartStore keeps cart blobs in process memory. Carts survive view
// reloads but not a restart.
type MemoryCartStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
	now   func() time.Time
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		blobs: make(map[string]memoryBlob),
		now:   time.Now,
	}
}

func (s *MemoryCartStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[sessionID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), blob.data...), nil
}

func (s *MemoryCartStore) Save(ctx context.Context, sessionID string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[sessionID] = memoryBlob{
		data:      append([]byte(nil), blob...),
		updatedAt: s.now(),
	}
	return nil
}

// DeleteIdle drops blobs last saved before cutoff and reports how many went.
func (s *MemoryCartStore) DeleteIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, blob := range s.blobs {
		if blob.updatedAt.Before(cutoff) {
			delete(s.blobs, id)
			deleted++
		}
	}
	return deleted, nil
}
