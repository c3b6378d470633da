package ports

import (
	"context"

	"github.com/aretw0/facilitator/pkg/domain"
)

// Evaluator evaluates conditional expressions bound to one ambiance.
type Evaluator interface {
	// EvaluateExpression evaluates expression to a boolean.
	// Malformed or unresolvable expressions return an error.
	EvaluateExpression(ctx context.Context, expression string) (bool, error)

	// Usage returns, for every referenced expression, the values it resolved to
	// and how many times each value was observed.
	Usage() map[string]map[any]int
}

// EvaluatorFactory binds evaluators to an execution context.
type EvaluatorFactory interface {
	PrepareExpressionEvaluator(ctx context.Context, ambiance domain.Ambiance) (Evaluator, error)
}

// EvaluatorFactoryFunc adapts a function to EvaluatorFactory.
type EvaluatorFactoryFunc func(ctx context.Context, ambiance domain.Ambiance) (Evaluator, error)

// PrepareExpressionEvaluator calls f.
func (f EvaluatorFactoryFunc) PrepareExpressionEvaluator(ctx context.Context, ambiance domain.Ambiance) (Evaluator, error) {
	return f(ctx, ambiance)
}
