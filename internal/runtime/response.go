package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/facilitator/pkg/domain"
)

// maxUpdateAttempts bounds retries when a writer outside the lease raced us.
const maxUpdateAttempts = 3

// ProcessStepResponse records response for the node addressed by ambiance.
// Repeating the final status a node already holds is a no-op; asking a final
// node for a different status returns domain.ErrTerminalTransition.
func (e *Engine) ProcessStepResponse(ctx context.Context, ambiance domain.Ambiance, response domain.StepResponse) error {
	if err := response.Validate(); err != nil {
		return err
	}
	id := ambiance.CurrentRuntimeID()
	if id == "" {
		return domain.ErrEmptyAmbiance
	}

	var finished *domain.NodeExecution
	err := e.leases.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		finished, err = e.apply(ctx, id, response)
		return err
	})
	if err != nil {
		return err
	}
	if finished != nil {
		e.logger.DebugContext(ctx, "node finished",
			"node_execution_id", id,
			"status", finished.Status,
		)
		e.emitNodeFinish(ctx, finished)
	}
	return nil
}

// apply writes response and returns the record when it just became final.
func (e *Engine) apply(ctx context.Context, id string, response domain.StepResponse) (*domain.NodeExecution, error) {
	for attempt := 1; ; attempt++ {
		exec, err := e.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load node execution %s: %w", id, err)
		}
		if exec.Status.IsFinal() && exec.Status == response.Status {
			return nil, nil
		}
		if !domain.CanTransition(exec.Status, response.Status) {
			return nil, fmt.Errorf("%w: %s is %s, got %s", domain.ErrTerminalTransition, id, exec.Status, response.Status)
		}

		exec.Status = response.Status
		if response.SkipInfo != nil {
			exec.SkipInfo = response.SkipInfo
		}
		if response.NodeRunInfo != nil {
			exec.NodeRunInfo = response.NodeRunInfo
		}
		if response.FailureInfo != nil {
			exec.FailureInfo = response.FailureInfo
		}
		if exec.Status.IsFinal() {
			exec.EndTs = e.now()
		}

		err = e.store.Update(ctx, exec)
		if errors.Is(err, domain.ErrVersionConflict) && attempt < maxUpdateAttempts {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update node execution %s: %w", id, err)
		}
		if exec.Status.IsFinal() {
			return exec, nil
		}
		return nil, nil
	}
}

// HandleError records cause as the ERRORED outcome of the node addressed by
// ambiance. A node that already finished keeps its status.
func (e *Engine) HandleError(ctx context.Context, ambiance domain.Ambiance, cause error) error {
	if cause == nil {
		cause = errors.New("unknown error")
	}
	e.logger.WarnContext(ctx, "handling node error",
		"plan_execution_id", ambiance.PlanExecutionID,
		"node_execution_id", ambiance.CurrentRuntimeID(),
		"err", cause,
	)

	resp := domain.Errored(cause.Error(), domain.ClassifyFailure(cause))
	err := e.ProcessStepResponse(ctx, ambiance, resp)
	if errors.Is(err, domain.ErrTerminalTransition) {
		e.logger.DebugContext(ctx, "node already final, error not recorded",
			"node_execution_id", ambiance.CurrentRuntimeID(),
		)
		return nil
	}
	if err != nil {
		return err
	}
	e.emitError(ctx, ambiance, cause)
	return nil
}
