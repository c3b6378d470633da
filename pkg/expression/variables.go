package expression

import (
	"context"

	"github.com/aretw0/facilitator/pkg/domain"
)

// VariableProvider supplies the variables visible to conditions of a node.
// Implementations may perform I/O; callers treat the call as blocking.
type VariableProvider interface {
	Variables(ctx context.Context, ambiance domain.Ambiance) (map[string]any, error)
}

// VariableProviderFunc adapts a function to VariableProvider.
type VariableProviderFunc func(ctx context.Context, ambiance domain.Ambiance) (map[string]any, error)

// Variables calls f.
func (f VariableProviderFunc) Variables(ctx context.Context, ambiance domain.Ambiance) (map[string]any, error) {
	return f(ctx, ambiance)
}

// StaticVariables returns the same variables for every ambiance.
type StaticVariables map[string]any

// Variables implements VariableProvider.
func (s StaticVariables) Variables(context.Context, domain.Ambiance) (map[string]any, error) {
	out := make(map[string]any, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

// AmbianceVariables decorates a base provider with facts derived from the
// ambiance itself: pipeline.executionId, pipeline.sequenceId,
// pipeline.identifier, stage.identifier, step.identifier, account.identifier,
// org.identifier and project.identifier. Derived facts win over base values.
type AmbianceVariables struct {
	Base VariableProvider
}

// Variables implements VariableProvider.
func (a AmbianceVariables) Variables(ctx context.Context, ambiance domain.Ambiance) (map[string]any, error) {
	vars := map[string]any{}
	if a.Base != nil {
		base, err := a.Base.Variables(ctx, ambiance)
		if err != nil {
			return nil, err
		}
		for k, v := range base {
			vars[k] = v
		}
	}

	set(vars, "pipeline", "executionId", ambiance.PlanExecutionID)
	set(vars, "pipeline", "identifier", ambiance.Metadata.PipelineIdentifier)
	if ambiance.Metadata.RunSequence > 0 {
		set(vars, "pipeline", "sequenceId", ambiance.Metadata.RunSequence)
	}
	if stage, ok := ambiance.StageLevel(); ok {
		set(vars, "stage", "identifier", stage.Identifier)
	}
	set(vars, "step", "identifier", ambiance.StepIdentifier())
	set(vars, "account", "identifier", ambiance.AccountID())
	set(vars, "org", "identifier", ambiance.OrgIdentifier())
	set(vars, "project", "identifier", ambiance.ProjectIdentifier())

	return vars, nil
}

// set writes scope.key without mutating a map owned by the base provider.
func set(vars map[string]any, scope, key string, value any) {
	if s, ok := value.(string); ok && s == "" {
		return
	}
	next := map[string]any{}
	if existing, ok := vars[scope].(map[string]any); ok {
		for k, v := range existing {
			next[k] = v
		}
	}
	next[key] = value
	vars[scope] = next
}
