package ports

import (
	"context"

	"github.com/aretw0/facilitator/pkg/domain"
)

// Orchestrator records node outcomes. Checkers call it when they resolve a
// node themselves (skip, not run, evaluation error).
type Orchestrator interface {
	// ProcessStepResponse records an outcome for the node addressed by ambiance.
	// Repeating the same terminal response is a no-op.
	ProcessStepResponse(ctx context.Context, ambiance domain.Ambiance, response domain.StepResponse) error

	// HandleError records an engine-level failure for the node addressed by ambiance.
	HandleError(ctx context.Context, ambiance domain.Ambiance, cause error) error
}

// Checker is one pre-facilitation check.
type Checker interface {
	// Name identifies the checker in logs and metrics.
	Name() string

	// PerformCheck decides whether the node may continue. A returned error is
	// fatal (e.g. the node execution record is missing) and the verdict must
	// not be trusted.
	PerformCheck(ctx context.Context, ambiance domain.Ambiance, node domain.PlanNode) (domain.ExecutionCheck, error)
}
