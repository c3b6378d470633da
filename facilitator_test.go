package facilitator_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/facilitator"
	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/expression"
	"github.com/aretw0/facilitator/pkg/observability"
	"github.com/aretw0/facilitator/pkg/ports"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade_Integration(t *testing.T) {
	metrics := observability.NewMetrics()
	var finished []domain.Status
	eng, err := facilitator.New(
		facilitator.WithVariables(expression.StaticVariables{
			"pipeline": map[string]any{"currentStatus": "SUCCESS"},
		}),
		facilitator.WithMetrics(metrics),
		facilitator.WithLifecycleHooks(domain.LifecycleHooks{
			OnNodeFinish: func(_ context.Context, e *domain.NodeEvent) { finished = append(finished, e.Status) },
		}),
		facilitator.WithStepExecutor(ports.StepExecutorFunc(func(ctx context.Context, amb domain.Ambiance, node domain.PlanNode) (domain.StepResponse, error) {
			return domain.StepResponse{Status: domain.StatusSucceeded}, nil
		})),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"depth", "skip_condition", "when_condition"}, eng.Checkers())

	ctx := context.Background()
	parent := facilitator.NewPlanExecution("plan-1", "deploy", map[string]string{domain.KeyAccountID: "acc"})

	ran, err := eng.StartNode(ctx, parent, domain.PlanNode{ID: "build", Identifier: "build", WhenCondition: "<+OnPipelineSuccess>"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, ran.Status)

	skipped, err := eng.StartNode(ctx, parent, domain.PlanNode{ID: "notify", Identifier: "notify", WhenCondition: "<+OnPipelineFailure>"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSkipped, skipped.Status)

	byAccount, err := eng.StartNode(ctx, parent, domain.PlanNode{ID: "acct", SkipCondition: `<+account.identifier> == "acc"`})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSkipped, byAccount.Status)

	assert.Equal(t, []domain.Status{domain.StatusSucceeded, domain.StatusSkipped, domain.StatusSkipped}, finished)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.NodeFinishes.WithLabelValues("SUCCEEDED"))+
		testutil.ToFloat64(metrics.NodeFinishes.WithLabelValues("SKIPPED")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Checks.WithLabelValues("depth", observability.VerdictProceed)))

	children, err := eng.Children(ctx, parent.PlanExecutionID, parent.CurrentRuntimeID())
	require.NoError(t, err)
	assert.Len(t, children, 3)
}

func TestNewPlanExecution(t *testing.T) {
	a := facilitator.NewPlanExecution("plan-1", "deploy", nil)
	b := facilitator.NewPlanExecution("plan-1", "deploy", nil)

	assert.NotEqual(t, a.PlanExecutionID, b.PlanExecutionID)
	assert.Equal(t, 1, a.Depth())
	assert.Equal(t, domain.CategoryPipeline, a.CurrentStepType().Category)
	assert.Equal(t, "deploy", a.StepIdentifier())
}

func TestRunner(t *testing.T) {
	eng, err := facilitator.New(facilitator.WithVariables(expression.StaticVariables{
		"stage": map[string]any{"currentStatus": "FAILED"},
	}))
	require.NoError(t, err)

	var out bytes.Buffer
	runner := facilitator.NewRunner(&out)
	runner.Headless = true

	results, err := runner.Run(context.Background(), eng, facilitator.NewPlanExecution("p", "p", nil), []domain.PlanNode{
		{ID: "a", Identifier: "a"},
		{ID: "b", Identifier: "b", WhenCondition: "<+OnStageSuccess>"},
		{ID: "c", Identifier: "c", SkipCondition: "<+nope>"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, domain.StatusRunning, results[0].Status)
	assert.Equal(t, domain.StatusSkipped, results[1].Status)
	assert.Equal(t, domain.StatusErrored, results[2].Status)

	assert.Contains(t, out.String(), "stage.currentStatus = FAILED (x1)")
	assert.Contains(t, out.String(), "EXPRESSION_EVALUATION")
}

func TestRunner_RequiresOutput(t *testing.T) {
	eng, err := facilitator.New()
	require.NoError(t, err)

	_, err = (&facilitator.Runner{}).Run(context.Background(), eng, facilitator.NewPlanExecution("p", "p", nil), nil)
	assert.Error(t, err)
}
