package db

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Each collection is guarded by its own lock,
// so insert-if-absent is atomic per collection.
type Memory struct {
	mu          sync.Mutex
	collections map[Collection]*memCollection
}

type memCollection struct {
	mu    sync.RWMutex
	docs  map[string][]byte
	order []string
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[Collection]*memCollection)}
}

func (m *Memory) collection(c Collection) *memCollection {
	m.mu.Lock()
	defer m.mu.Unlock()

	mc, ok := m.collections[c]
	if !ok {
		mc = &memCollection{docs: make(map[string][]byte)}
		m.collections[c] = mc
	}
	return mc
}

func (m *Memory) Insert(_ context.Context, c Collection, key string, doc []byte) error {
	mc := m.collection(c)
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.docs[key]; ok {
		return ErrAlreadyExists
	}
	mc.docs[key] = clone(doc)
	mc.order = append(mc.order, key)
	return nil
}

func (m *Memory) Get(_ context.Context, c Collection, key string) ([]byte, error) {
	mc := m.collection(c)
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	doc, ok := mc.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(doc), nil
}

func (m *Memory) Update(_ context.Context, c Collection, key string, doc []byte) error {
	mc := m.collection(c)
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.docs[key]; !ok {
		return ErrNotFound
	}
	mc.docs[key] = clone(doc)
	return nil
}

func (m *Memory) Delete(_ context.Context, c Collection, key string) error {
	mc := m.collection(c)
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.docs[key]; !ok {
		return ErrNotFound
	}
	delete(mc.docs, key)
	for i, k := range mc.order {
		if k == key {
			mc.order = append(mc.order[:i], mc.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) List(_ context.Context, c Collection) ([][]byte, error) {
	mc := m.collection(c)
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	docs := make([][]byte, 0, len(mc.order))
	for _, k := range mc.order {
		docs = append(docs, clone(mc.docs[k]))
	}
	return docs, nil
}

func (m *Memory) Count(_ context.Context, c Collection) (int, error) {
	mc := m.collection(c)
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.docs), nil
}

func (m *Memory) Close() error { return nil }

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
