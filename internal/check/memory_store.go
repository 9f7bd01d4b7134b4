package check

import (
	"context"
	"sync"

	"github.com/chaincheck/chaincheck/internal/entity"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu       sync.RWMutex
	searches map[string]int64 // normalized|type → count
}

// NewMemoryStore creates an in-memory search counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		searches: make(map[string]int64),
	}
}

func statsKey(normalized string, entityType entity.Type) string {
	return normalized + "|" + string(entityType)
}

func (s *MemoryStore) RecordSearch(ctx context.Context, normalized string, entityType entity.Type) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := statsKey(normalized, entityType)
	s.searches[key]++
	return s.searches[key], nil
}

func (s *MemoryStore) TimesSearched(ctx context.Context, normalized string, entityType entity.Type) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.searches[statsKey(normalized, entityType)], nil
}
