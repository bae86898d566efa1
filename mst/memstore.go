package mst

import (
	"context"
	"fmt"
	"sync"

	"github.com/primal-host/atcore/cid"
)

// MemStore is a NodeStore backed by an in-process map, useful for tests
// and for callers that materialise a full repository in memory before
// handing it to the car package.
type MemStore struct {
	mu    sync.RWMutex
	nodes map[string][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{nodes: make(map[string][]byte)}
}

// Get implements NodeStore.
func (m *MemStore) Get(_ context.Context, c cid.CID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.nodes[c.String()]
	if !ok {
		return nil, fmt.Errorf("mst: memstore: %w: %s", ErrNotFound, c)
	}
	return data, nil
}

// Put implements NodeStore.
func (m *MemStore) Put(_ context.Context, c cid.CID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[c.String()] = data
	return nil
}

// All returns every (CID, bytes) pair currently stored, in no particular
// order — useful for feeding the car package a full block set.
func (m *MemStore) All() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.nodes))
	for k, v := range m.nodes {
		out[k] = v
	}
	return out
}
