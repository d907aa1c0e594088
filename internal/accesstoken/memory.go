package accesstoken

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and local runs.  It enforces
// the same unique-email rule as the SQL schema.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEmail: make(map[string]Record)}
}

func (m *MemoryStore) FindByToken(_ context.Context, token string) (Record, error) {
	if token == "" {
		return Record{}, ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.byEmail {
		if rec.Token == token {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *MemoryStore) FindByEmail(_ context.Context, email string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byEmail[NormaliseEmail(email)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) ListActive(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.byEmail))
	for _, rec := range m.byEmail {
		if rec.Active() {
			out = append(out, rec)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, email string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NormaliseEmail(email)
	rec, ok := m.byEmail[key]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	m.byEmail[key] = rec
	return nil
}

func (m *MemoryStore) Insert(_ context.Context, rec *Record) error {
	prepare(rec, time.Now().UTC())
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.byEmail[rec.Email]; dup {
		return ErrDuplicateEmail
	}
	m.byEmail[rec.Email] = *rec
	return nil
}
