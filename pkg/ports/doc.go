/*
Package ports defines the driven ports (interfaces) of the facilitation engine.

These interfaces decouple the checkers and the orchestration engine from
stores, expression backends and lock services.

# Key Interfaces

  - NodeExecutionStore: versioned persistence of NodeExecution records.
  - EvaluatorFactory / Evaluator: condition evaluation bound to an Ambiance.
  - Orchestrator: the only place outcomes are recorded.
  - Checker: one link of the pre-facilitation chain.
  - StepExecutor: runs a node once it passed facilitation.
  - DistributedLocker: cross-replica write exclusion per node execution.
*/
package ports
