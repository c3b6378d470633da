package facilitator

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/facilitator/pkg/domain"
)

// Runner starts a list of sibling nodes under one parent ambiance and reports
// each outcome. It is what the CLI uses to replay plan files.
type Runner struct {
	Output   io.Writer
	Headless bool
}

// NewRunner creates a Runner writing to w.
func NewRunner(w io.Writer) *Runner {
	return &Runner{Output: w}
}

// Run starts every node in order. It stops at the first engine failure; a
// node that is skipped or errored does not stop the run.
func (r *Runner) Run(ctx context.Context, engine *Engine, parent domain.Ambiance, nodes []domain.PlanNode) ([]*domain.NodeExecution, error) {
	if r.Output == nil {
		return nil, fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- plan execution %s ---\n", parent.PlanExecutionID)
	}

	results := make([]*domain.NodeExecution, 0, len(nodes))
	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		exec, err := engine.StartNode(ctx, parent, node)
		if err != nil {
			return results, fmt.Errorf("node %s: %w", node.ID, err)
		}
		results = append(results, exec)
		fmt.Fprintln(r.Output, describe(exec))
	}
	return results, nil
}

func describe(exec *domain.NodeExecution) string {
	name := exec.Identifier
	if name == "" {
		name = exec.PlanNodeID
	}
	line := fmt.Sprintf("%-24s %s", name, exec.Status)
	switch {
	case exec.SkipInfo != nil:
		line += fmt.Sprintf("  skip condition %q evaluated %t", exec.SkipInfo.SkipCondition, exec.SkipInfo.EvaluatedCondition)
	case exec.NodeRunInfo != nil:
		line += fmt.Sprintf("  when condition %q evaluated %t", exec.NodeRunInfo.WhenCondition, exec.NodeRunInfo.EvaluatedCondition)
		for _, b := range exec.NodeRunInfo.Expressions {
			line += fmt.Sprintf("\n%26s%s = %s (x%d)", "", b.Expression, b.ExpressionValue, b.Count)
		}
	case exec.FailureInfo != nil:
		line += fmt.Sprintf("  %v: %s", exec.FailureInfo.FailureTypes, exec.FailureInfo.Message)
	}
	return line
}
