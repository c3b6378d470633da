package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/facilitator/pkg/domain"
)

// Store implements ports.NodeExecutionStore in memory.
// Safe for concurrent use.
type Store struct {
	current map[string]*domain.NodeExecution
	history map[string][]*domain.NodeExecution
	mu      sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		current: make(map[string]*domain.NodeExecution),
		history: make(map[string][]*domain.NodeExecution),
	}
}

// Save persists a new record in memory.
func (s *Store) Save(ctx context.Context, exec *domain.NodeExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.current[exec.ID]; exists {
		return domain.ErrDuplicateKey
	}

	exec.Version = 0
	// Copy on write so the caller can't mutate store state through its pointer
	s.current[exec.ID] = exec.Snapshot()
	s.history[exec.ID] = []*domain.NodeExecution{exec.Snapshot()}
	return nil
}

// Get retrieves the record by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.NodeExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.current[id]
	if !ok {
		return nil, domain.ErrNodeExecutionNotFound
	}
	return exec.Snapshot(), nil
}

// Find retrieves the record addressed by the ambiance leaf.
func (s *Store) Find(ctx context.Context, ambiance domain.Ambiance) (*domain.NodeExecution, error) {
	return s.Get(ctx, ambiance.CurrentRuntimeID())
}

// Update replaces the record if the version matches.
func (s *Store) Update(ctx context.Context, exec *domain.NodeExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.current[exec.ID]
	if !ok {
		return domain.ErrNodeExecutionNotFound
	}
	if stored.Version != exec.Version {
		return domain.ErrVersionConflict
	}

	exec.Version++
	s.current[exec.ID] = exec.Snapshot()
	s.history[exec.ID] = append(s.history[exec.ID], exec.Snapshot())
	return nil
}

// History returns every snapshot of a record.
func (s *Store) History(ctx context.Context, id string) ([]*domain.NodeExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots, ok := s.history[id]
	if !ok {
		return nil, domain.ErrNodeExecutionNotFound
	}
	out := make([]*domain.NodeExecution, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, snap.Snapshot())
	}
	return out, nil
}

// ListByPlanExecution returns the records of a plan execution ordered by start time.
func (s *Store) ListByPlanExecution(ctx context.Context, planExecutionID string) ([]*domain.NodeExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.NodeExecution
	for _, exec := range s.current {
		if exec.Ambiance.PlanExecutionID == planExecutionID {
			out = append(out, exec.Snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTs.Equal(out[j].StartTs) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTs.Before(out[j].StartTs)
	})
	return out, nil
}
