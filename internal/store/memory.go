package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// MemoryStore keeps all namespaces in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[Namespace]map[string]json.RawMessage
	closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[Namespace]map[string]json.RawMessage)}
}

func (s *MemoryStore) Get(_ context.Context, ns Namespace, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	v, ok := s.data[ns][key]
	if !ok {
		return nil, nil
	}
	return clone(v), nil
}

func (s *MemoryStore) Put(_ context.Context, ns Namespace, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	bucket, ok := s.data[ns]
	if !ok {
		bucket = make(map[string]json.RawMessage)
		s.data[ns] = bucket
	}
	bucket[key] = clone(value)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, ns Namespace, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	if _, ok := s.data[ns][key]; !ok {
		return false, nil
	}
	delete(s.data[ns], key)
	return true, nil
}

func (s *MemoryStore) List(_ context.Context, ns Namespace) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]Record, 0, len(s.data[ns]))
	for k, v := range s.data[ns] {
		out = append(out, Record{Key: k, Value: clone(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func clone(v json.RawMessage) json.RawMessage {
	if v == nil {
		return nil
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out
}
