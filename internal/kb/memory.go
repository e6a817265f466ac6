package kb

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory KnowledgeBase used when no external collaborator
// is configured, and by tests.
type MemoryStore struct {
	mu        sync.Mutex
	resources map[string]map[string]map[string]any
}

// NewMemoryStore creates an empty in-memory knowledge base.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		resources: make(map[string]map[string]map[string]any),
	}
}

// Add creates or replaces a resource under its natural key.
func (s *MemoryStore) Add(ctx context.Context, resource, key string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.resources[resource]
	if !ok {
		coll = make(map[string]map[string]any)
		s.resources[resource] = coll
	}
	coll[key] = cloneData(data)
	return nil
}

// Update merges data into an existing resource.
func (s *MemoryStore) Update(ctx context.Context, resource, key string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.resources[resource]
	if !ok {
		return ErrNotFound
	}
	existing, ok := coll[key]
	if !ok {
		return ErrNotFound
	}
	for k, v := range data {
		existing[k] = v
	}
	return nil
}

// Delete removes a resource by key; absent keys are a no-op.
func (s *MemoryStore) Delete(ctx context.Context, resource, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if coll, ok := s.resources[resource]; ok {
		delete(coll, key)
	}
	return nil
}

// Get returns a copy of a stored resource; used by tests and readiness checks.
func (s *MemoryStore) Get(resource, key string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.resources[resource]
	if !ok {
		return nil, false
	}
	data, ok := coll[key]
	if !ok {
		return nil, false
	}
	return cloneData(data), true
}

// Count returns how many resources of the given type are stored.
func (s *MemoryStore) Count(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resources[resource])
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
