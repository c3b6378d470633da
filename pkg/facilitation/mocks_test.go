package facilitation_test

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/facilitator/pkg/adapters/memory"
	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/ports"
	"github.com/stretchr/testify/mock"
)

// MockOrchestrator records the outcomes reported by checkers.
type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) ProcessStepResponse(ctx context.Context, ambiance domain.Ambiance, response domain.StepResponse) error {
	args := m.Called(ctx, ambiance, response)
	return args.Error(0)
}

func (m *MockOrchestrator) HandleError(ctx context.Context, ambiance domain.Ambiance, cause error) error {
	args := m.Called(ctx, ambiance, cause)
	return args.Error(0)
}

// MockEvaluatorFactory hands out a prepared evaluator.
type MockEvaluatorFactory struct {
	mock.Mock
}

func (m *MockEvaluatorFactory) PrepareExpressionEvaluator(ctx context.Context, ambiance domain.Ambiance) (ports.Evaluator, error) {
	args := m.Called(ctx, ambiance)
	ev, _ := args.Get(0).(ports.Evaluator)
	return ev, args.Error(1)
}

// MockEvaluator answers conditions.
type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) EvaluateExpression(ctx context.Context, expression string) (bool, error) {
	args := m.Called(ctx, expression)
	return args.Bool(0), args.Error(1)
}

func (m *MockEvaluator) Usage() map[string]map[any]int {
	args := m.Called()
	usage, _ := args.Get(0).(map[string]map[any]int)
	return usage
}

// ambianceOfDepth builds an ambiance with n levels; the leaf runtime id is "leaf".
func ambianceOfDepth(n int) domain.Ambiance {
	amb := domain.Ambiance{PlanExecutionID: "plan-exec-1", PlanID: "plan-1"}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("rt-%d", i)
		if i == n-1 {
			id = "leaf"
		}
		amb = amb.CloneForChild(domain.Level{
			RuntimeID: id,
			SetupID:   fmt.Sprintf("setup-%d", i),
			StepType:  domain.StepType{Type: "ShellScript", Category: domain.CategoryStep},
		})
	}
	return amb
}

// seededStore returns a store holding the node execution addressed by amb.
func seededStore(amb domain.Ambiance, node domain.PlanNode) *memory.Store {
	store := memory.NewStore()
	if err := store.Save(context.Background(), domain.NewNodeExecution(amb, node, time.Unix(1700000000, 0))); err != nil {
		panic(err)
	}
	return store
}
