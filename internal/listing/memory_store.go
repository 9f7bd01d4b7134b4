package listing

import (
	"context"
	"sort"
	"sync"

	"github.com/chaincheck/chaincheck/internal/entity"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu        sync.RWMutex
	blacklist map[string]*BlacklistEntry
	whitelist map[string]*WhitelistEntry
}

// NewMemoryStore creates an in-memory listing store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blacklist: make(map[string]*BlacklistEntry),
		whitelist: make(map[string]*WhitelistEntry),
	}
}

func listKey(normalized string, entityType entity.Type) string {
	return normalized + "|" + string(entityType)
}

func (s *MemoryStore) AddBlacklist(ctx context.Context, e *BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := listKey(e.Normalized, e.EntityType)
	if _, exists := s.blacklist[key]; exists {
		return ErrDuplicate
	}
	cp := *e
	s.blacklist[key] = &cp
	return nil
}

func (s *MemoryStore) RemoveBlacklist(ctx context.Context, normalized string, entityType entity.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := listKey(normalized, entityType)
	if _, exists := s.blacklist[key]; !exists {
		return ErrNotFound
	}
	delete(s.blacklist, key)
	return nil
}

func (s *MemoryStore) LookupBlacklist(ctx context.Context, normalized string, entityType entity.Type) (*BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.blacklist[listKey(normalized, entityType)]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) ListBlacklist(ctx context.Context, limit, offset int) ([]*BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*BlacklistEntry, 0, len(s.blacklist))
	for _, e := range s.blacklist {
		cp := *e
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, limit, offset), nil
}

func (s *MemoryStore) AddWhitelist(ctx context.Context, e *WhitelistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := listKey(e.Normalized, e.EntityType)
	if _, exists := s.whitelist[key]; exists {
		return ErrDuplicate
	}
	cp := *e
	s.whitelist[key] = &cp
	return nil
}

func (s *MemoryStore) RemoveWhitelist(ctx context.Context, normalized string, entityType entity.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := listKey(normalized, entityType)
	if _, exists := s.whitelist[key]; !exists {
		return ErrNotFound
	}
	delete(s.whitelist, key)
	return nil
}

func (s *MemoryStore) LookupWhitelist(ctx context.Context, normalized string, entityType entity.Type) (*WhitelistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.whitelist[listKey(normalized, entityType)]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) ListWhitelist(ctx context.Context, limit, offset int) ([]*WhitelistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*WhitelistEntry, 0, len(s.whitelist))
	for _, e := range s.whitelist {
		cp := *e
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].VerifiedAt.After(all[j].VerifiedAt) })
	return paginate(all, limit, offset), nil
}

func paginate[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
