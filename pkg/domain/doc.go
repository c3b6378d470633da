/*
Package domain contains the core models of the facilitation engine.

It is kept pure and free of I/O so that stores, evaluators and transports can
be swapped without touching the rules.

# Key Entities

  - Ambiance: immutable position of a node invocation within a plan execution (a stack of Levels).
  - PlanNode: static step definition, including optional when and skip conditions.
  - NodeExecution: versioned runtime record of one PlanNode within one Ambiance.
  - ExecutionCheck: verdict of a pre-facilitation checker.
  - StepResponse: terminal outcome with exactly one cause (NodeRunInfo, SkipInfo or FailureInfo).
*/
package domain
