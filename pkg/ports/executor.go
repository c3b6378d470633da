package ports

import (
	"context"

	"github.com/aretw0/facilitator/pkg/domain"
)

// StepExecutor runs a node that passed facilitation and reports its outcome.
// A returned error is handled as an engine-level failure of the node.
type StepExecutor interface {
	Execute(ctx context.Context, ambiance domain.Ambiance, node domain.PlanNode) (domain.StepResponse, error)
}

// StepExecutorFunc adapts a function to StepExecutor.
type StepExecutorFunc func(ctx context.Context, ambiance domain.Ambiance, node domain.PlanNode) (domain.StepResponse, error)

// Execute calls f.
func (f StepExecutorFunc) Execute(ctx context.Context, ambiance domain.Ambiance, node domain.PlanNode) (domain.StepResponse, error) {
	return f(ctx, ambiance, node)
}
