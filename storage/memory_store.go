package storage

import (
	"context"
	"sync"
	"time"

	"streeteasy-monitor/models"
)

// MemoryStore keeps listings in process memory. It backs dry runs and
// tests and is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*models.Listing
	order    []string
	now      func() time.Time
	failWith error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]*models.Listing),
		now:  time.Now,
	}
}

// FailInserts makes every later InsertIfAbsent return err. Passing nil
// restores normal behavior.
func (m *MemoryStore) FailInserts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *MemoryStore) ExistingIDs(_ context.Context) (models.IDSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make(models.IDSet, len(m.byID))
	for id := range m.byID {
		ids.Add(id)
	}
	return ids, nil
}

// InsertIfAbsent stores a copy of the whitelisted fields of l.
func (m *MemoryStore) InsertIfAbsent(_ context.Context, l *models.Listing) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return false, m.failWith
	}
	if l == nil || l.ID == "" {
		return false, nil
	}
	if _, exists := m.byID[l.ID]; exists {
		return false, nil
	}

	m.byID[l.ID] = &models.Listing{
		ID:           l.ID,
		URL:          l.URL,
		Price:        l.Price,
		Address:      l.Address,
		Neighborhood: l.Neighborhood,
		ListedBy:     l.ListedBy,
		CreatedAt:    m.now(),
	}
	m.order = append(m.order, l.ID)
	return true, nil
}

// List returns stored listings newest first. A limit of 0 returns all.
func (m *MemoryStore) List(_ context.Context, limit int) ([]*models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*models.Listing, 0, n)
	for i := len(m.order) - 1; i >= 0 && len(out) < n; i-- {
		l := *m.byID[m.order[i]]
		out = append(out, &l)
	}
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

// Len returns the number of stored listings.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func (m *MemoryStore) Close() error { return nil }
