package wallet

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu  sync.RWMutex
	ids map[string]Identity
}

func NewMemoryStore(ids ...Identity) *MemoryStore {
	s := &MemoryStore{ids: make(map[string]Identity)}
	for _, id := range ids {
		s.ids[id.Label] = id
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, label string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ids[label]
	if !ok {
		return Identity{}, fmt.Errorf("%w: %q", ErrNotFound, label)
	}
	return id, nil
}

func (s *MemoryStore) Put(ctx context.Context, id Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id.Label] = id
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	labels := make([]string, 0, len(s.ids))
	for l := range s.ids {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels, nil
}
