/*
Package facilitator is the pre-facilitation core of a pipeline orchestration
engine.

Before a node of a pipeline plan runs, the engine decides whether it may run
at all. Every node instantiation gets a NodeExecution record addressed by its
Ambiance (the stack of levels from the pipeline down to the node) and goes
through an ordered checker chain:

  - Depth: executions nested deeper than the limit are errored out.
  - Skip condition: when it evaluates to true the node is SKIPPED.
  - When condition: when it evaluates to false the node is SKIPPED.

Conditions are expr-lang expressions with Harness-style references such as
<+pipeline.name> or <+OnPipelineSuccess>. Evaluation errors are recorded as
ERRORED outcomes. Outcomes are written once, under a per-record lease, and the
store keeps every version of a record.

# Usage

	eng, err := facilitator.New(
		facilitator.WithVariables(expression.StaticVariables{
			"pipeline": map[string]any{"name": "deploy", "currentStatus": "SUCCESS"},
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	parent := facilitator.NewPlanExecution("plan-1", "deploy", nil)
	exec, err := eng.StartNode(ctx, parent, domain.PlanNode{
		ID:            "notify",
		WhenCondition: "<+OnPipelineFailure>",
	})
	// exec.Status == domain.StatusSkipped

Stores live in pkg/adapters (memory, redis, sqlite); pkg/adapters/http serves
an inspection API and cmd/facilitator wraps everything in a CLI.
*/
package facilitator
