package facilitator_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/facilitator"
	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/expression"
)

// ExampleNew shows a when condition skipping a node and recording which
// values the decision was based on.
func ExampleNew() {
	eng, err := facilitator.New(facilitator.WithVariables(expression.StaticVariables{
		"pipeline": map[string]any{"currentStatus": "SUCCESS", "env": "dev"},
	}))
	if err != nil {
		log.Fatal(err)
	}

	parent := facilitator.NewPlanExecution("plan-1", "release", nil)
	exec, err := eng.StartNode(context.Background(), parent, domain.PlanNode{
		ID:            "promote",
		Identifier:    "promote",
		WhenCondition: `<+OnPipelineSuccess> && <+pipeline.env> == "prod"`,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(exec.Status)
	for _, b := range exec.NodeRunInfo.Expressions {
		fmt.Printf("%s=%s\n", b.Expression, b.ExpressionValue)
	}
	// Output:
	// SKIPPED
	// pipeline.currentStatus=SUCCESS
	// pipeline.env=dev
}
