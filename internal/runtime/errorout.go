package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/facilitator/pkg/domain"
)

// ErrorOutMessage is recorded on nodes closed by ErrorOutActiveNodes.
const ErrorOutMessage = "Node execution errored out because its plan execution was errored out"

// ErrorOutActiveNodes moves every non-final node of a plan execution to
// ERRORED and returns how many were changed.
func (e *Engine) ErrorOutActiveNodes(ctx context.Context, planExecutionID string) (int, error) {
	execs, err := e.store.ListByPlanExecution(ctx, planExecutionID)
	if err != nil {
		return 0, fmt.Errorf("list node executions: %w", err)
	}

	changed := 0
	for _, exec := range execs {
		if exec.IsFinal() {
			continue
		}
		err := e.ProcessStepResponse(ctx, exec.Ambiance, domain.Errored(ErrorOutMessage, domain.FailureApplication))
		if errors.Is(err, domain.ErrTerminalTransition) {
			// Finished concurrently.
			continue
		}
		if err != nil {
			return changed, fmt.Errorf("error out %s: %w", exec.ID, err)
		}
		changed++
	}
	e.logger.InfoContext(ctx, "errored out active nodes",
		"plan_execution_id", planExecutionID,
		"count", changed,
	)
	return changed, nil
}

// Children returns the node executions of a plan execution whose parent is parentID.
func (e *Engine) Children(ctx context.Context, planExecutionID, parentID string) ([]*domain.NodeExecution, error) {
	execs, err := e.store.ListByPlanExecution(ctx, planExecutionID)
	if err != nil {
		return nil, fmt.Errorf("list node executions: %w", err)
	}
	var children []*domain.NodeExecution
	for _, exec := range execs {
		if exec.ParentID == parentID {
			children = append(children, exec)
		}
	}
	return children, nil
}
