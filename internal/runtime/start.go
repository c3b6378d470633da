package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/facilitator/pkg/domain"
)

// StartNode instantiates node under parent: it derives the child ambiance,
// saves a QUEUED record and facilitates it. A node that may proceed is marked
// RUNNING and handed to the step executor, if any. The returned record is the
// latest stored version.
func (e *Engine) StartNode(ctx context.Context, parent domain.Ambiance, node domain.PlanNode) (*domain.NodeExecution, error) {
	now := e.now()
	ambiance := parent.CloneForChild(node.NewLevel(e.newID(), now.UnixMilli()))
	exec := domain.NewNodeExecution(ambiance, node, now)

	if err := e.store.Save(ctx, exec); err != nil {
		return nil, fmt.Errorf("save node execution: %w", err)
	}

	check, err := e.Facilitate(ctx, ambiance, node)
	if err != nil {
		return nil, fmt.Errorf("facilitate %s: %w", exec.ID, err)
	}
	if check.Proceed {
		if err := e.run(ctx, ambiance, node); err != nil {
			return nil, err
		}
	}

	return e.store.Get(ctx, exec.ID)
}

func (e *Engine) run(ctx context.Context, ambiance domain.Ambiance, node domain.PlanNode) error {
	if err := e.ProcessStepResponse(ctx, ambiance, domain.StepResponse{Status: domain.StatusRunning}); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	exec, err := e.store.Find(ctx, ambiance)
	if err != nil {
		return err
	}
	e.emitNodeStart(ctx, exec)

	if e.executor == nil {
		return nil
	}
	resp, err := e.executor.Execute(ctx, ambiance, node)
	if err != nil {
		return e.HandleError(ctx, ambiance, err)
	}
	return e.ProcessStepResponse(ctx, ambiance, resp)
}
