package domain

// AdviserObtainment references an adviser that decides what happens after a
// node finishes. Advisers run outside of facilitation; the engine only carries
// the references.
type AdviserObtainment struct {
	Type       string            `json:"type" yaml:"type"`
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// PlanNode is the static definition of a step in the pipeline graph.
// It is owned by the plan and only referenced by executions.
type PlanNode struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Identifier string   `json:"identifier" yaml:"identifier"`
	StepType   StepType `json:"step_type" yaml:"step_type"`
	Group      string   `json:"group,omitempty" yaml:"group,omitempty"`

	// WhenCondition, when set, must evaluate to true for the node to run.
	WhenCondition string `json:"when_condition,omitempty" yaml:"when_condition,omitempty"`
	// SkipCondition, when set and evaluating to true, skips the node.
	SkipCondition string `json:"skip_condition,omitempty" yaml:"skip_condition,omitempty"`

	AdviserObtainments []AdviserObtainment `json:"adviser_obtainments,omitempty" yaml:"adviser_obtainments,omitempty"`

	// ServiceName is the module that owns the step implementation (e.g. "CD", "CI").
	ServiceName string `json:"service_name,omitempty" yaml:"service_name,omitempty"`
}

// HasWhenCondition reports whether a when condition is configured.
func (n PlanNode) HasWhenCondition() bool { return n.WhenCondition != "" }

// HasSkipCondition reports whether a skip condition is configured.
func (n PlanNode) HasSkipCondition() bool { return n.SkipCondition != "" }

// NewLevel builds the level a fresh instantiation of this node contributes
// to its ambiance.
func (n PlanNode) NewLevel(runtimeID string, startTs int64) Level {
	return Level{
		RuntimeID:  runtimeID,
		SetupID:    n.ID,
		Identifier: n.Identifier,
		Group:      n.Group,
		StepType:   n.StepType,
		StartTs:    startTs,
	}
}
