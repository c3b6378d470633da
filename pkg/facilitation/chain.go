package facilitation

import (
	"context"
	"fmt"

	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/ports"
)

// VerdictObserver is notified after every checker that ran.
type VerdictObserver func(ctx context.Context, checker string, ambiance domain.Ambiance, node domain.PlanNode, check domain.ExecutionCheck)

// Chain runs checkers in order and stops at the first veto.
type Chain struct {
	checkers []ports.Checker
	observe  VerdictObserver
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithVerdictObserver registers fn to see every verdict.
func WithVerdictObserver(fn VerdictObserver) ChainOption {
	return func(c *Chain) {
		c.observe = fn
	}
}

// NewChain creates a chain over checkers, evaluated in the given order.
func NewChain(checkers []ports.Checker, opts ...ChainOption) *Chain {
	c := &Chain{checkers: append([]ports.Checker(nil), checkers...)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultCheckers returns depth, skip-condition and when-condition checkers,
// in that order. Depth comes first because it is free and guards everything
// after it; skip is evaluated before when.
func DefaultCheckers(maxDepth int, store ports.NodeExecutionStore, evaluators ports.EvaluatorFactory, orchestrator ports.Orchestrator, opts ...Option) []ports.Checker {
	return []ports.Checker{
		NewDepthChecker(maxDepth),
		NewSkipConditionChecker(store, evaluators, orchestrator, opts...),
		NewWhenConditionChecker(store, evaluators, orchestrator, opts...),
	}
}

// Name implements ports.Checker.
func (c *Chain) Name() string { return "chain" }

// Checkers returns the names of the checkers in evaluation order.
func (c *Chain) Checkers() []string {
	names := make([]string, len(c.checkers))
	for i, ch := range c.checkers {
		names[i] = ch.Name()
	}
	return names
}

// PerformCheck runs every checker until one vetoes or fails.
func (c *Chain) PerformCheck(ctx context.Context, ambiance domain.Ambiance, node domain.PlanNode) (domain.ExecutionCheck, error) {
	for _, checker := range c.checkers {
		check, err := checker.PerformCheck(ctx, ambiance, node)
		if err != nil {
			return domain.Veto(""), fmt.Errorf("%s check: %w", checker.Name(), err)
		}
		if c.observe != nil {
			c.observe(ctx, checker.Name(), ambiance, node, check)
		}
		if !check.Proceed {
			return check, nil
		}
	}
	return domain.Proceed(), nil
}
