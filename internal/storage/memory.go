package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/naka-gawa/repo-compare/internal/domain"
)

// Memory is an in-process Store. Each instance owns its index and id counter,
// so independent instances never share state.
type Memory struct {
	mu      sync.Mutex
	records map[int]domain.RepoInfo
	nextID  int
	now     func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[int]domain.RepoInfo),
		nextID:  1,
		now:     time.Now,
	}
}

// CreateOne stores a new record, assigning the id and creation timestamp.
func (m *Memory) CreateOne(_ context.Context, draft domain.RepoInfo) (domain.RepoInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	draft.ID = m.nextID
	m.nextID++
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = m.now()
	}
	m.records[draft.ID] = draft
	return draft, nil
}

// GetOne returns the record with the given id, or nil when absent.
func (m *Memory) GetOne(_ context.Context, id int) (*domain.RepoInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// GetMany returns the records matching the filter, ordered by id ascending,
// with skip/limit pagination applied after filtering.
func (m *Memory) GetMany(_ context.Context, filter Filter, skip, limit int) ([]domain.RepoInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int, 0, len(m.records))
	for id, rec := range m.records {
		if filter.matches(&rec) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	if skip > len(ids) {
		skip = len(ids)
	}
	ids = ids[skip:]
	if limit >= 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	result := make([]domain.RepoInfo, 0, len(ids))
	for _, id := range ids {
		result = append(result, m.records[id])
	}
	return result, nil
}

// UpdateOne applies the patch to the record with the given id and bumps its
// UpdatedAt. Returns nil when the id is unknown.
func (m *Memory) UpdateOne(_ context.Context, id int, patch Patch) (*domain.RepoInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	patch.apply(&rec, m.now())
	m.records[id] = rec
	return &rec, nil
}

// DeleteOne removes the record with the given id, reporting whether it existed.
func (m *Memory) DeleteOne(_ context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}
