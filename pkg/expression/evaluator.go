package expression

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/ports"
	"github.com/expr-lang/expr"
)

const (
	pathPipelineStatus = "pipeline.currentStatus"
	pathStageStatus    = "stage.currentStatus"
	statusSuccess      = "SUCCESS"
)

var failureStatuses = map[string]bool{
	"FAILURE": true,
	"FAILED":  true,
	"ERRORED": true,
	"ABORTED": true,
	"EXPIRED": true,
}

// Factory prepares evaluators bound to an ambiance.
type Factory struct {
	provider VariableProvider
	observe  func(time.Duration)
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithDurationObserver registers a callback receiving the duration of every evaluation.
func WithDurationObserver(fn func(time.Duration)) FactoryOption {
	return func(f *Factory) {
		f.observe = fn
	}
}

// NewFactory creates a Factory reading variables from provider.
func NewFactory(provider VariableProvider, opts ...FactoryOption) *Factory {
	if provider == nil {
		provider = StaticVariables(nil)
	}
	f := &Factory{provider: provider}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PrepareExpressionEvaluator implements ports.EvaluatorFactory.
func (f *Factory) PrepareExpressionEvaluator(ctx context.Context, ambiance domain.Ambiance) (ports.Evaluator, error) {
	vars, err := f.provider.Variables(ctx, ambiance)
	if err != nil {
		return nil, fmt.Errorf("load variables: %w", err)
	}
	return &Evaluator{
		vars:    vars,
		tracker: NewUsageTracker(),
		observe: f.observe,
	}, nil
}

// Evaluator evaluates conditions against a fixed set of variables.
type Evaluator struct {
	vars    map[string]any
	tracker *UsageTracker
	observe func(time.Duration)
}

// NewEvaluator creates an evaluator over vars.
func NewEvaluator(vars map[string]any) *Evaluator {
	return &Evaluator{vars: vars, tracker: NewUsageTracker()}
}

// EvaluateExpression resolves references and evaluates expression to a boolean.
func (e *Evaluator) EvaluateExpression(ctx context.Context, expression string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if e.observe != nil {
		start := time.Now()
		defer func() { e.observe(time.Since(start)) }()
	}

	rewritten, refs, err := rewrite(expression, e.resolve)
	if err != nil {
		return false, &EvaluationError{Expression: expression, Err: err}
	}

	env := make(map[string]any, len(e.vars)+len(refs))
	for k, v := range e.vars {
		env[k] = v
	}
	for k, v := range refs {
		env[k] = v
	}

	program, err := expr.Compile(rewritten, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, &EvaluationError{Expression: expression, Err: err}
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, &EvaluationError{Expression: expression, Err: err}
	}
	result, ok := output.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: expression,
			Err:        fmt.Errorf("%w (got %T)", ErrNotBoolean, output),
		}
	}
	return result, nil
}

// Usage returns the values observed for every referenced expression.
func (e *Evaluator) Usage() map[string]map[any]int {
	return e.tracker.Usage()
}

// resolve returns the value of a reference path and records it.
func (e *Evaluator) resolve(path string) (any, error) {
	switch path {
	case "Always":
		return true, nil
	case "OnPipelineSuccess":
		return e.statusHelper(pathPipelineStatus, KeyOnPipelineStatus, isSuccess)
	case "OnPipelineFailure":
		return e.statusHelper(pathPipelineStatus, KeyOnPipelineStatus, isFailure)
	case "OnStageSuccess":
		return e.statusHelper(pathStageStatus, KeyOnStageStatus, isSuccess)
	case "OnStageFailure":
		return e.statusHelper(pathStageStatus, KeyOnStageStatus, isFailure)
	}

	value, ok := lookup(e.vars, path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedReference, path)
	}
	e.tracker.Track(path, value)
	return value, nil
}

func (e *Evaluator) statusHelper(statusPath, key string, match func(string) bool) (any, error) {
	status, err := e.resolve(statusPath)
	if err != nil {
		return nil, err
	}
	result := match(fmt.Sprint(status))
	e.tracker.Track(key, result)
	return result, nil
}

func isSuccess(status string) bool { return status == statusSuccess }

func isFailure(status string) bool { return failureStatuses[status] }
