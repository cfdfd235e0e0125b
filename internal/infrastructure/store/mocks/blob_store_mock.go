package mocks

import (
	"context"
	"sync"
)

// MockBlobStore is an in-memory cart.BlobStore with call recording and
// error injection.
type MockBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	LoadCalls []string
	SaveCalls []SaveCall

	LoadErr error
	SaveErr error
}

// SaveCall records parameters passed to Save
type SaveCall struct {
	SessionID string
	Blob      []byte
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{blobs: make(map[string][]byte)}
}

func (m *MockBlobStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LoadCalls = append(m.LoadCalls, sessionID)
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	blob, ok := m.blobs[sessionID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), blob...), nil
}

func (m *MockBlobStore) Save(ctx context.Context, sessionID string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls = append(m.SaveCalls, SaveCall{SessionID: sessionID, Blob: append([]byte(nil), blob...)})
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.blobs[sessionID] = append([]byte(nil), blob...)
	return nil
}

// Put seeds a stored blob directly.
func (m *MockBlobStore) Put(sessionID string, blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[sessionID] = blob
}

func (m *MockBlobStore) Blob(sessionID string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blobs[sessionID]
}
