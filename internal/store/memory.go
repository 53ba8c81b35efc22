package store

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryStore keeps values in process memory. It is the default store and the failover fallback.
type MemoryStore struct {
	values sync.Map
	closed atomic.Bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	val, ok := s.values.Load(key)
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), val.([]byte)...), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.values.Store(key, append([]byte(nil), value...))
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}
