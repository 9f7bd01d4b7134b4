package identity

import (
	"context"
	"sort"
	"sync"

	"github.com/chaincheck/chaincheck/internal/entity"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an in-memory identity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func recordKey(normalized string, entityType entity.Type) string {
	return normalized + "|" + string(entityType)
}

func (s *MemoryStore) Add(ctx context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(r.Normalized, r.EntityType)
	if _, exists := s.records[key]; exists {
		return ErrDuplicate
	}
	cp := *r
	s.records[key] = &cp
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, normalized string, entityType entity.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(normalized, entityType)
	if _, exists := s.records[key]; !exists {
		return ErrNotFound
	}
	delete(s.records, key)
	return nil
}

func (s *MemoryStore) Lookup(ctx context.Context, normalized string, entityType entity.Type) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[recordKey(normalized, entityType)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		cp := *r
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
