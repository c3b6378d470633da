package facilitation

import (
	"context"
	"fmt"

	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/expression"
	"github.com/aretw0/facilitator/pkg/ports"
)

// WhenConditionChecker skips a node whose when condition evaluates to false.
// Note the polarity: true lets the node run, unlike a skip condition.
type WhenConditionChecker struct {
	conditionChecker
}

// NewWhenConditionChecker creates the checker.
func NewWhenConditionChecker(store ports.NodeExecutionStore, evaluators ports.EvaluatorFactory, orchestrator ports.Orchestrator, opts ...Option) *WhenConditionChecker {
	return &WhenConditionChecker{newConditionChecker(store, evaluators, orchestrator, opts)}
}

// Name implements ports.Checker.
func (c *WhenConditionChecker) Name() string { return "when_condition" }

// PerformCheck implements ports.Checker.
func (c *WhenConditionChecker) PerformCheck(ctx context.Context, ambiance domain.Ambiance, node domain.PlanNode) (domain.ExecutionCheck, error) {
	if !node.HasWhenCondition() {
		return domain.Proceed(), nil
	}

	run, ev, evalErr, err := c.evaluate(ctx, ambiance, node.WhenCondition)
	if err != nil {
		return domain.Veto(""), err
	}
	if evalErr != nil {
		return c.fail(ctx, ambiance, evalErr)
	}
	if run {
		return domain.Proceed(), nil
	}

	c.logger.Debug("when condition not met",
		"node_execution_id", ambiance.CurrentRuntimeID(),
		"condition", node.WhenCondition,
	)
	resp := domain.NotRun(node.WhenCondition, false, expression.ExpressionBlocks(ev.Usage()))
	if err := c.orchestrator.ProcessStepResponse(ctx, ambiance, resp); err != nil {
		return domain.Veto(""), fmt.Errorf("process when response: %w", err)
	}
	return domain.Veto(""), nil
}
