package facilitation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/facilitator/pkg/adapters/memory"
	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/expression"
	"github.com/aretw0/facilitator/pkg/facilitation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func whenFactory() *expression.Factory {
	return expression.NewFactory(expression.StaticVariables{
		"pipeline": map[string]any{"name": "name", "currentStatus": "SUCCESS"},
		"stage":    map[string]any{"name": "stage1", "currentStatus": "FAILED"},
	})
}

func TestWhenConditionChecker_NoCondition(t *testing.T) {
	amb := ambianceOfDepth(3)
	node := domain.PlanNode{ID: "n"}
	factory := new(MockEvaluatorFactory)
	orch := new(MockOrchestrator)

	checker := facilitation.NewWhenConditionChecker(seededStore(amb, node), factory, orch)
	check, err := checker.PerformCheck(context.Background(), amb, node)

	require.NoError(t, err)
	assert.True(t, check.Proceed)
	factory.AssertNotCalled(t, "PrepareExpressionEvaluator", mock.Anything, mock.Anything)
}

func TestWhenConditionChecker_True(t *testing.T) {
	amb := ambianceOfDepth(3)
	node := domain.PlanNode{ID: "n", WhenCondition: "<+OnPipelineSuccess> && <+pipeline.name> == \"name\""}
	orch := new(MockOrchestrator)

	checker := facilitation.NewWhenConditionChecker(seededStore(amb, node), whenFactory(), orch)
	check, err := checker.PerformCheck(context.Background(), amb, node)

	require.NoError(t, err)
	assert.True(t, check.Proceed)
	orch.AssertNotCalled(t, "ProcessStepResponse", mock.Anything, mock.Anything, mock.Anything)
	orch.AssertNotCalled(t, "HandleError", mock.Anything, mock.Anything, mock.Anything)
}

func TestWhenConditionChecker_False(t *testing.T) {
	amb := ambianceOfDepth(3)
	cond := "<+OnStageSuccess> && <+stage.name> == \"stage1\""
	node := domain.PlanNode{ID: "n", WhenCondition: cond}

	var got domain.StepResponse
	orch := new(MockOrchestrator)
	orch.On("ProcessStepResponse", mock.Anything, amb, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(domain.StepResponse) }).
		Return(nil).Once()

	checker := facilitation.NewWhenConditionChecker(seededStore(amb, node), whenFactory(), orch)
	check, err := checker.PerformCheck(context.Background(), amb, node)

	require.NoError(t, err)
	assert.False(t, check.Proceed)
	assert.Empty(t, check.Reason)
	orch.AssertExpectations(t)

	assert.Equal(t, domain.StatusSkipped, got.Status)
	assert.Nil(t, got.SkipInfo)
	assert.Nil(t, got.FailureInfo)
	require.NotNil(t, got.NodeRunInfo)
	assert.Equal(t, cond, got.NodeRunInfo.WhenCondition)
	assert.False(t, got.NodeRunInfo.EvaluatedCondition)
	assert.Equal(t, []domain.ExpressionBlock{
		{Expression: "stage.currentStatus", ExpressionValue: "FAILED", Count: 1},
		{Expression: "stage.name", ExpressionValue: "stage1", Count: 1},
	}, got.NodeRunInfo.Expressions)
	assert.NoError(t, got.Validate())
}

func TestWhenConditionChecker_EvaluationError(t *testing.T) {
	amb := ambianceOfDepth(3)
	node := domain.PlanNode{ID: "n", WhenCondition: "<+pipeline.name>"}
	orch := new(MockOrchestrator)
	orch.On("HandleError", mock.Anything, amb, mock.MatchedBy(func(err error) bool {
		var evalErr *expression.EvaluationError
		return errors.As(err, &evalErr)
	})).Return(nil).Once()

	checker := facilitation.NewWhenConditionChecker(seededStore(amb, node), whenFactory(), orch)
	check, err := checker.PerformCheck(context.Background(), amb, node)

	require.NoError(t, err)
	assert.False(t, check.Proceed)
	orch.AssertExpectations(t)
	orch.AssertNotCalled(t, "ProcessStepResponse", mock.Anything, mock.Anything, mock.Anything)
}

func TestWhenConditionChecker_HandleErrorFails(t *testing.T) {
	amb := ambianceOfDepth(3)
	node := domain.PlanNode{ID: "n", WhenCondition: "<+pipeline.nope>"}
	orch := new(MockOrchestrator)
	orch.On("HandleError", mock.Anything, amb, mock.Anything).Return(errors.New("store down"))

	checker := facilitation.NewWhenConditionChecker(seededStore(amb, node), whenFactory(), orch)
	check, err := checker.PerformCheck(context.Background(), amb, node)

	require.Error(t, err)
	assert.False(t, check.Proceed)
}

func TestWhenConditionChecker_MissingNodeExecution(t *testing.T) {
	amb := ambianceOfDepth(3)
	node := domain.PlanNode{ID: "n", WhenCondition: "true"}
	orch := new(MockOrchestrator)

	checker := facilitation.NewWhenConditionChecker(memory.NewStore(), whenFactory(), orch)
	_, err := checker.PerformCheck(context.Background(), amb, node)

	assert.ErrorIs(t, err, domain.ErrNodeExecutionNotFound)
	orch.AssertNotCalled(t, "HandleError", mock.Anything, mock.Anything, mock.Anything)
}

func TestWhenConditionChecker_Idempotent(t *testing.T) {
	amb := ambianceOfDepth(3)
	cond := "<+OnPipelineSuccess> && <+stage.name> == \"stage2\""
	node := domain.PlanNode{ID: "n", WhenCondition: cond}

	var responses []domain.StepResponse
	orch := new(MockOrchestrator)
	orch.On("ProcessStepResponse", mock.Anything, amb, mock.Anything).
		Run(func(args mock.Arguments) { responses = append(responses, args.Get(2).(domain.StepResponse)) }).
		Return(nil).Twice()

	checker := facilitation.NewWhenConditionChecker(seededStore(amb, node), whenFactory(), orch)

	first, err := checker.PerformCheck(context.Background(), amb, node)
	require.NoError(t, err)
	second, err := checker.PerformCheck(context.Background(), amb, node)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.False(t, second.Proceed)
	orch.AssertExpectations(t)

	require.Len(t, responses, 2)
	assert.Equal(t, responses[0], responses[1])
	require.NotNil(t, responses[1].NodeRunInfo)
	assert.Equal(t, []domain.ExpressionBlock{
		{Expression: "pipeline.currentStatus", ExpressionValue: "SUCCESS", Count: 1},
		{Expression: "stage.name", ExpressionValue: "stage1", Count: 1},
	}, responses[1].NodeRunInfo.Expressions)
}

func TestWhenConditionChecker_IdempotentProceed(t *testing.T) {
	amb := ambianceOfDepth(3)
	node := domain.PlanNode{ID: "n", WhenCondition: "<+pipeline.name> == \"name\""}
	checker := facilitation.NewWhenConditionChecker(seededStore(amb, node), whenFactory(), new(MockOrchestrator))

	first, err := checker.PerformCheck(context.Background(), amb, node)
	require.NoError(t, err)
	second, err := checker.PerformCheck(context.Background(), amb, node)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, second.Proceed)
}
