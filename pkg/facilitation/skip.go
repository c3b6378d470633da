package facilitation

import (
	"context"
	"fmt"

	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/ports"
)

// SkipConditionChecker skips a node whose skip condition evaluates to true.
type SkipConditionChecker struct {
	conditionChecker
}

// NewSkipConditionChecker creates the checker.
func NewSkipConditionChecker(store ports.NodeExecutionStore, evaluators ports.EvaluatorFactory, orchestrator ports.Orchestrator, opts ...Option) *SkipConditionChecker {
	return &SkipConditionChecker{newConditionChecker(store, evaluators, orchestrator, opts)}
}

// Name implements ports.Checker.
func (c *SkipConditionChecker) Name() string { return "skip_condition" }

// PerformCheck implements ports.Checker.
func (c *SkipConditionChecker) PerformCheck(ctx context.Context, ambiance domain.Ambiance, node domain.PlanNode) (domain.ExecutionCheck, error) {
	if !node.HasSkipCondition() {
		return domain.Proceed(), nil
	}

	skip, _, evalErr, err := c.evaluate(ctx, ambiance, node.SkipCondition)
	if err != nil {
		return domain.Veto(""), err
	}
	if evalErr != nil {
		return c.fail(ctx, ambiance, evalErr)
	}
	if !skip {
		return domain.Proceed(), nil
	}

	c.logger.Debug("skip condition met",
		"node_execution_id", ambiance.CurrentRuntimeID(),
		"condition", node.SkipCondition,
	)
	if err := c.orchestrator.ProcessStepResponse(ctx, ambiance, domain.Skipped(node.SkipCondition, true)); err != nil {
		return domain.Veto(""), fmt.Errorf("process skip response: %w", err)
	}
	return domain.Veto(""), nil
}
