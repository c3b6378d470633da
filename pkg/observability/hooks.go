package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/facilitator/pkg/domain"
)

// Hooks builds lifecycle hooks that log through logger and record into
// metrics. Either may be nil.
func Hooks(logger *slog.Logger, metrics *Metrics) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCheck: func(ctx context.Context, e *domain.CheckEvent) {
			if logger != nil {
				logger.DebugContext(ctx, "check",
					"node_execution_id", e.NodeExecutionID,
					"checker", e.Checker,
					"proceed", e.Check.Proceed,
					"reason", e.Check.Reason,
				)
			}
			if metrics != nil {
				metrics.ObserveCheck(e.Checker, e.Check)
			}
		},
		OnNodeStart: func(ctx context.Context, e *domain.NodeEvent) {
			if logger != nil {
				logger.InfoContext(ctx, "node_start",
					"plan_execution_id", e.PlanExecutionID,
					"node_execution_id", e.NodeExecutionID,
					"identifier", e.Identifier,
				)
			}
			if metrics != nil {
				metrics.NodeStarts.Inc()
			}
		},
		OnNodeFinish: func(ctx context.Context, e *domain.NodeEvent) {
			if logger != nil {
				logger.InfoContext(ctx, "node_finish",
					"plan_execution_id", e.PlanExecutionID,
					"node_execution_id", e.NodeExecutionID,
					"identifier", e.Identifier,
					"status", e.Status,
				)
			}
			if metrics != nil {
				metrics.NodeFinishes.WithLabelValues(string(e.Status)).Inc()
			}
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			if logger != nil {
				logger.WarnContext(ctx, "node_error",
					"plan_execution_id", e.PlanExecutionID,
					"node_execution_id", e.NodeExecutionID,
					"err", e.Err,
				)
			}
			if metrics != nil {
				metrics.Errors.Inc()
			}
		},
	}
}

// Compose returns hooks that call every non-nil callback of each set, in order.
func Compose(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, s := range sets {
		out.OnCheck = chain(out.OnCheck, s.OnCheck)
		out.OnNodeStart = chain(out.OnNodeStart, s.OnNodeStart)
		out.OnNodeFinish = chain(out.OnNodeFinish, s.OnNodeFinish)
		out.OnError = chain(out.OnError, s.OnError)
	}
	return out
}

func chain[E any](first, next func(context.Context, E)) func(context.Context, E) {
	switch {
	case first == nil:
		return next
	case next == nil:
		return first
	}
	return func(ctx context.Context, e E) {
		first(ctx, e)
		next(ctx, e)
	}
}
