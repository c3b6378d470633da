package facilitation

import (
	"context"

	"github.com/aretw0/facilitator/pkg/domain"
)

// MaxDepth is the default maximum number of levels an ambiance may hold.
const MaxDepth = 25

// NestingLimitReason is the veto reason of the depth checker.
const NestingLimitReason = "The pipeline has reached the maximum nesting allowed for an execution. " +
	"Please simplify the pipeline configuration so that it does not breach the allowed limit of nesting."

// DepthChecker bounds the nesting of an execution. It never performs I/O.
type DepthChecker struct {
	maxDepth int
}

// NewDepthChecker creates a checker with the given limit; non-positive values use MaxDepth.
func NewDepthChecker(maxDepth int) *DepthChecker {
	if maxDepth <= 0 {
		maxDepth = MaxDepth
	}
	return &DepthChecker{maxDepth: maxDepth}
}

// Name implements ports.Checker.
func (c *DepthChecker) Name() string { return "depth" }

// PerformCheck vetoes when the ambiance has more levels than allowed.
func (c *DepthChecker) PerformCheck(_ context.Context, ambiance domain.Ambiance, _ domain.PlanNode) (domain.ExecutionCheck, error) {
	if ambiance.Depth() > c.maxDepth {
		return domain.Veto(NestingLimitReason), nil
	}
	return domain.Proceed(), nil
}
