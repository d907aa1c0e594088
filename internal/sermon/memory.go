package sermon

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Sermon
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Sermon)}
}

func (m *MemoryStore) ListByUser(_ context.Context, userID string) ([]Sermon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Sermon
	for _, s := range m.byID {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Sermon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return Sermon{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Insert(_ context.Context, s *Sermon) error {
	m.mu.Lock()
	m.byID[s.ID] = *s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Update(_ context.Context, s *Sermon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[s.ID]; !ok {
		return ErrNotFound
	}
	m.byID[s.ID] = *s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}
