package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/facilitator/internal/logging"
	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/facilitation"
	"github.com/aretw0/facilitator/pkg/lease"
	"github.com/aretw0/facilitator/pkg/ports"
	"github.com/oklog/ulid/v2"
)

// Engine is the orchestration engine. It implements ports.Orchestrator.
type Engine struct {
	store      ports.NodeExecutionStore
	evaluators ports.EvaluatorFactory
	chain      *facilitation.Chain
	leases     *lease.Manager
	executor   ports.StepExecutor

	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	maxDepth int
}

var _ ports.Orchestrator = (*Engine)(nil)

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLeaseManager sets the manager serializing writes per node execution.
func WithLeaseManager(m *lease.Manager) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.leases = m
		}
	}
}

// WithStepExecutor sets what runs a node after it passed facilitation.
// Without one, StartNode leaves proceeding nodes RUNNING.
func WithStepExecutor(executor ports.StepExecutor) EngineOption {
	return func(e *Engine) {
		e.executor = executor
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides how runtime ids are minted.
func WithIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithMaxDepth sets the nesting limit of the depth checker.
func WithMaxDepth(depth int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// NewEngine creates an engine over store and evaluators.
func NewEngine(store ports.NodeExecutionStore, evaluators ports.EvaluatorFactory, opts ...EngineOption) *Engine {
	e := &Engine{
		store:      store,
		evaluators: evaluators,
		leases:     lease.NewManager(),
		logger:     logging.NewNop(),
		now:        time.Now,
		newID:      func() string { return ulid.Make().String() },
		maxDepth:   facilitation.MaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}

	checkers := facilitation.DefaultCheckers(e.maxDepth, e.store, e.evaluators, e, facilitation.WithLogger(e.logger))
	e.chain = facilitation.NewChain(checkers, facilitation.WithVerdictObserver(e.emitCheck))
	return e
}

// Store returns the node execution store.
func (e *Engine) Store() ports.NodeExecutionStore {
	return e.store
}

// Checkers returns the checker names in evaluation order.
func (e *Engine) Checkers() []string {
	return e.chain.Checkers()
}
