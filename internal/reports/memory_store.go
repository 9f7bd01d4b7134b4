package reports

import (
	"context"
	"sync"

	"github.com/chaincheck/chaincheck/internal/entity"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string][]*Report // normalized|type → reports, newest last
}

// NewMemoryStore creates an in-memory report store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string][]*Report)}
}

func reportKey(normalized string, entityType entity.Type) string {
	return normalized + "|" + string(entityType)
}

func (s *MemoryStore) Create(ctx context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	key := reportKey(r.Normalized, r.EntityType)
	s.reports[key] = append(s.reports[key], &cp)
	return nil
}

func (s *MemoryStore) ListForEntity(ctx context.Context, normalized string, entityType entity.Type, limit int) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.reports[reportKey(normalized, entityType)]
	if len(all) == 0 {
		return nil, nil
	}

	start := len(all) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}

	// Newest first.
	result := make([]*Report, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		cp := *all[i]
		result = append(result, &cp)
	}
	return result, nil
}

func (s *MemoryStore) CountForEntity(ctx context.Context, normalized string, entityType entity.Type) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.reports[reportKey(normalized, entityType)])), nil
}
