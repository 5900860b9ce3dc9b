package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

// MemoryStore keeps state in process. Values are stored encoded so callers never
// share a state value with the store, matching what a remote store would do.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Key][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[Key][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key Key) (*domain.ConversationState, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()

	st := &domain.ConversationState{}
	if !ok {
		return st, nil
	}
	if err := json.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrStore, key, err)
	}
	return st, nil
}

func (s *MemoryStore) Put(ctx context.Context, key Key, st *domain.ConversationState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrStore, key, err)
	}

	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

// Len reports how many conversations are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
