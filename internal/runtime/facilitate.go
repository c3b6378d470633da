package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/facilitator/pkg/domain"
)

// Facilitate runs the pre-facilitation chain for the node addressed by
// ambiance. A veto carrying a reason was not recorded by its checker, so the
// engine records it as ERRORED with a CONFIGURATION failure.
func (e *Engine) Facilitate(ctx context.Context, ambiance domain.Ambiance, node domain.PlanNode) (domain.ExecutionCheck, error) {
	check, err := e.chain.PerformCheck(ctx, ambiance, node)
	if err != nil {
		return check, err
	}
	if !check.Proceed && check.Reason != "" {
		resp := domain.Errored(check.Reason, domain.FailureConfiguration)
		if err := e.ProcessStepResponse(ctx, ambiance, resp); err != nil {
			return check, fmt.Errorf("record veto: %w", err)
		}
	}
	return check, nil
}
