package facilitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/facilitator/internal/logging"
	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/ports"
)

// conditionChecker holds what the skip and when checkers share.
type conditionChecker struct {
	store        ports.NodeExecutionStore
	evaluators   ports.EvaluatorFactory
	orchestrator ports.Orchestrator
	logger       *slog.Logger
}

// Option configures a condition checker.
type Option func(*conditionChecker)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *conditionChecker) {
		c.logger = logger
	}
}

func newConditionChecker(store ports.NodeExecutionStore, evaluators ports.EvaluatorFactory, orchestrator ports.Orchestrator, opts []Option) conditionChecker {
	c := conditionChecker{
		store:        store,
		evaluators:   evaluators,
		orchestrator: orchestrator,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// evaluate loads the node execution and evaluates condition in its ambiance.
// A non-nil fatal error means the record could not be read; evalErr means
// the condition itself could not be evaluated.
func (c *conditionChecker) evaluate(ctx context.Context, ambiance domain.Ambiance, condition string) (result bool, ev ports.Evaluator, evalErr error, fatal error) {
	exec, err := c.store.Find(ctx, ambiance)
	if err != nil {
		return false, nil, nil, fmt.Errorf("load node execution %s: %w", ambiance.CurrentRuntimeID(), err)
	}

	ev, err = c.evaluators.PrepareExpressionEvaluator(ctx, exec.Ambiance)
	if err != nil {
		if isCanceled(err) {
			return false, nil, nil, err
		}
		return false, nil, err, nil
	}

	result, err = ev.EvaluateExpression(ctx, condition)
	if err != nil {
		if isCanceled(err) {
			return false, ev, nil, err
		}
		return false, ev, err, nil
	}
	return result, ev, nil, nil
}

// fail forwards an evaluation error to the orchestrator and vetoes.
func (c *conditionChecker) fail(ctx context.Context, ambiance domain.Ambiance, cause error) (domain.ExecutionCheck, error) {
	c.logger.Debug("condition evaluation failed",
		"node_execution_id", ambiance.CurrentRuntimeID(),
		"err", cause,
	)
	if err := c.orchestrator.HandleError(ctx, ambiance, cause); err != nil {
		return domain.Veto(""), fmt.Errorf("handle evaluation error: %w", err)
	}
	return domain.Veto(""), nil
}

// isCanceled reports caller-imposed cancellation, which is returned to the
// caller instead of erroring the node.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
