package ports

import (
	"context"

	"github.com/aretw0/facilitator/pkg/domain"
)

// NodeExecutionStore persists versioned NodeExecution records.
type NodeExecutionStore interface {
	// Save persists a new record with Version 0.
	// Returns domain.ErrDuplicateKey if the id already exists.
	Save(ctx context.Context, exec *domain.NodeExecution) error

	// Get retrieves the current record by id.
	// Returns domain.ErrNodeExecutionNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.NodeExecution, error)

	// Find retrieves the current record addressed by the leaf level of the ambiance.
	// Returns domain.ErrNodeExecutionNotFound if it does not exist.
	Find(ctx context.Context, ambiance domain.Ambiance) (*domain.NodeExecution, error)

	// Update replaces the record if exec.Version matches the stored version.
	// On success the stored version (and exec.Version) becomes exec.Version+1 and a
	// snapshot is appended to the history. Returns domain.ErrVersionConflict otherwise.
	Update(ctx context.Context, exec *domain.NodeExecution) error

	// History returns every snapshot of a record, oldest first.
	History(ctx context.Context, id string) ([]*domain.NodeExecution, error)

	// ListByPlanExecution returns the current records of a plan execution.
	ListByPlanExecution(ctx context.Context, planExecutionID string) ([]*domain.NodeExecution, error)
}
