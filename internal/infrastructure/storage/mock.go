package storage

import (
	"fmt"
	"sort"
	"sync"
)

// MockRepository is an in-memory implementation of Repository for testing.
type MockRepository struct {
	mu   sync.Mutex
	runs map[string]*Run

	// Hooks for test assertions
	SaveRunCalled bool
	LastSavedRun  *Run
	Closed        bool

	// Error injection for testing error paths
	SaveRunErr  error
	GetRunErr   error
	ListRunsErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs: make(map[string]*Run),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// SaveRun stores a copy of run
func (m *MockRepository) SaveRun(run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveRunCalled = true
	m.LastSavedRun = run
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}

	stored := *run
	m.runs[run.ID] = &stored
	return nil
}

// GetRun returns a stored run
func (m *MockRepository) GetRun(id string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	out := *run
	return &out, nil
}

// ListRuns returns stored runs newest first, without result tables
func (m *MockRepository) ListRuns(limit int) ([]*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	runs := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		summary := *r
		summary.Rows = nil
		runs = append(runs, &summary)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close marks the repository closed
func (m *MockRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}
