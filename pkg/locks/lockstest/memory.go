// Package lockstest provides an in-process lock store for service tests.
package lockstest

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore satisfies locks.Store without redis. TTLs are ignored.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = fmt.Sprint(value)
	return true, nil
}

func (s *MemoryStore) ReleaseIfOwner(_ context.Context, key, owner string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[key] != owner {
		return false, nil
	}
	delete(s.values, key)
	return true, nil
}

func (s *MemoryStore) LockKey(scope, id string) string {
	return "lock:" + scope + ":" + id
}

// Hold takes the lock as an outside owner until the returned release func runs.
func (s *MemoryStore) Hold(scope, id string) func() {
	key := s.LockKey(scope, id)
	s.mu.Lock()
	s.values[key] = "held-by-test"
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.values, key)
		s.mu.Unlock()
	}
}
