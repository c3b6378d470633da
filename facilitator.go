package facilitator

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/facilitator/internal/logging"
	"github.com/aretw0/facilitator/internal/runtime"
	"github.com/aretw0/facilitator/pkg/adapters/memory"
	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/expression"
	"github.com/aretw0/facilitator/pkg/lease"
	"github.com/aretw0/facilitator/pkg/observability"
	"github.com/aretw0/facilitator/pkg/ports"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Engine is the high-level entry point of the library.
// It wraps the internal runtime and wires stores, evaluators and observability.
type Engine struct {
	runtime *runtime.Engine

	store      ports.NodeExecutionStore
	evaluators ports.EvaluatorFactory
	variables  expression.VariableProvider
	executor   ports.StepExecutor
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	maxDepth   int
	hooks      domain.LifecycleHooks
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the node execution store (default: in-memory).
func WithStore(store ports.NodeExecutionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithVariables sets the variables conditions are evaluated against. The
// engine adds facts derived from each ambiance on top of them.
func WithVariables(provider expression.VariableProvider) Option {
	return func(e *Engine) {
		e.variables = provider
	}
}

// WithEvaluatorFactory replaces the expression backend. WithVariables is
// ignored when set.
func WithEvaluatorFactory(factory ports.EvaluatorFactory) Option {
	return func(e *Engine) {
		e.evaluators = factory
	}
}

// WithStepExecutor sets what runs nodes that passed facilitation.
func WithStepExecutor(executor ports.StepExecutor) Option {
	return func(e *Engine) {
		e.executor = executor
	}
}

// WithLocker enables distributed leases on node execution records.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL sets the lifetime of distributed leases.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithMaxDepth overrides the nesting limit.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = observability.Compose(e.hooks, hooks)
	}
}

// WithMetrics records checks, outcomes and evaluation latency into metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a new Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.evaluators == nil {
		var factoryOpts []expression.FactoryOption
		if eng.metrics != nil {
			factoryOpts = append(factoryOpts, expression.WithDurationObserver(eng.metrics.ObserveEvaluation))
		}
		eng.evaluators = expression.NewFactory(expression.AmbianceVariables{Base: eng.variables}, factoryOpts...)
	}

	hooks := eng.hooks
	if eng.metrics != nil {
		hooks = observability.Compose(observability.Hooks(nil, eng.metrics), hooks)
	}

	leaseOpts := []lease.Option{lease.WithLogger(eng.logger), lease.WithTTL(eng.lockTTL)}
	if eng.locker != nil {
		leaseOpts = append(leaseOpts, lease.WithLocker(eng.locker))
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(hooks),
		runtime.WithLeaseManager(lease.NewManager(leaseOpts...)),
		runtime.WithStepExecutor(eng.executor),
	}
	if eng.maxDepth > 0 {
		runtimeOpts = append(runtimeOpts, runtime.WithMaxDepth(eng.maxDepth))
	}

	eng.runtime = runtime.NewEngine(eng.store, eng.evaluators, runtimeOpts...)
	return eng, nil
}

// StartNode instantiates node under parent, facilitates it and, when it may
// proceed, runs it through the step executor.
func (e *Engine) StartNode(ctx context.Context, parent domain.Ambiance, node domain.PlanNode) (*domain.NodeExecution, error) {
	return e.runtime.StartNode(ctx, parent, node)
}

// Facilitate runs the checker chain for an existing node execution.
func (e *Engine) Facilitate(ctx context.Context, ambiance domain.Ambiance, node domain.PlanNode) (domain.ExecutionCheck, error) {
	return e.runtime.Facilitate(ctx, ambiance, node)
}

// ProcessStepResponse records an outcome for the node addressed by ambiance.
func (e *Engine) ProcessStepResponse(ctx context.Context, ambiance domain.Ambiance, response domain.StepResponse) error {
	return e.runtime.ProcessStepResponse(ctx, ambiance, response)
}

// HandleError records cause as the ERRORED outcome of the node.
func (e *Engine) HandleError(ctx context.Context, ambiance domain.Ambiance, cause error) error {
	return e.runtime.HandleError(ctx, ambiance, cause)
}

// ErrorOutActiveNodes errors out every non-final node of a plan execution.
func (e *Engine) ErrorOutActiveNodes(ctx context.Context, planExecutionID string) (int, error) {
	return e.runtime.ErrorOutActiveNodes(ctx, planExecutionID)
}

// Children returns the node executions started directly under parentID.
func (e *Engine) Children(ctx context.Context, planExecutionID, parentID string) ([]*domain.NodeExecution, error) {
	return e.runtime.Children(ctx, planExecutionID, parentID)
}

// Store returns the node execution store.
func (e *Engine) Store() ports.NodeExecutionStore {
	return e.store
}

// Checkers returns the checker names in evaluation order.
func (e *Engine) Checkers() []string {
	return e.runtime.Checkers()
}

// NewPlanExecution returns the root ambiance of a fresh plan execution: a
// random plan execution id and a single PIPELINE level.
func NewPlanExecution(planID, pipelineIdentifier string, setup map[string]string) domain.Ambiance {
	amb := domain.Ambiance{
		PlanExecutionID:   uuid.NewString(),
		PlanID:            planID,
		SetupAbstractions: setup,
		Metadata:          domain.ExecutionMetadata{PipelineIdentifier: pipelineIdentifier, RunSequence: 1},
	}
	return amb.CloneForChild(domain.Level{
		RuntimeID:  ulid.Make().String(),
		SetupID:    planID,
		Identifier: pipelineIdentifier,
		StepType:   domain.StepType{Type: "PIPELINE", Category: domain.CategoryPipeline},
		StartTs:    time.Now().UnixMilli(),
	})
}
