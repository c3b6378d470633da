package runtime

import (
	"context"

	"github.com/aretw0/facilitator/pkg/domain"
)

func (e *Engine) emitCheck(ctx context.Context, checker string, ambiance domain.Ambiance, node domain.PlanNode, check domain.ExecutionCheck) {
	if e.hooks.OnCheck == nil {
		return
	}
	e.hooks.OnCheck(ctx, &domain.CheckEvent{
		EventBase: domain.NewEventBase(domain.EventCheck, ambiance, e.now()),
		Checker:   checker,
		PlanNode:  node.ID,
		Check:     check,
	})
}

func (e *Engine) emitNodeStart(ctx context.Context, exec *domain.NodeExecution) {
	if e.hooks.OnNodeStart == nil {
		return
	}
	e.hooks.OnNodeStart(ctx, &domain.NodeEvent{
		EventBase:  domain.NewEventBase(domain.EventNodeStart, exec.Ambiance, e.now()),
		Identifier: exec.Identifier,
		Status:     exec.Status,
	})
}

func (e *Engine) emitNodeFinish(ctx context.Context, exec *domain.NodeExecution) {
	if e.hooks.OnNodeFinish == nil {
		return
	}
	e.hooks.OnNodeFinish(ctx, &domain.NodeEvent{
		EventBase:  domain.NewEventBase(domain.EventNodeFinish, exec.Ambiance, e.now()),
		Identifier: exec.Identifier,
		Status:     exec.Status,
	})
}

func (e *Engine) emitError(ctx context.Context, ambiance domain.Ambiance, err error) {
	if e.hooks.OnError == nil {
		return
	}
	e.hooks.OnError(ctx, &domain.ErrorEvent{
		EventBase: domain.NewEventBase(domain.EventError, ambiance, e.now()),
		Err:       err,
	})
}
