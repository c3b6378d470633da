package domain

import "slices"

// StepCategory classifies the kind of plan node a Level was created for.
type StepCategory string

const (
	CategoryPipeline  StepCategory = "PIPELINE"
	CategoryStages    StepCategory = "STAGES"
	CategoryStage     StepCategory = "STAGE"
	CategoryStepGroup StepCategory = "STEP_GROUP"
	CategoryFork      StepCategory = "FORK"
	CategoryStrategy  StepCategory = "STRATEGY"
	CategoryStep      StepCategory = "STEP"
)

// StepType identifies the step implementation of a plan node.
type StepType struct {
	Type     string       `json:"type" yaml:"type"`
	Category StepCategory `json:"category" yaml:"category"`
}

// Setup abstraction keys.
const (
	KeyAccountID         = "accountId"
	KeyOrgIdentifier     = "orgIdentifier"
	KeyProjectIdentifier = "projectIdentifier"
)

// Group names used by levels created for the top-level containers.
const (
	GroupStages = "STAGES"
	GroupStage  = "STAGE"
	GroupSteps  = "STEPS"
)

// Level is one frame of an Ambiance. It identifies a single node instantiation.
type Level struct {
	RuntimeID  string   `json:"runtime_id" yaml:"runtime_id"`
	SetupID    string   `json:"setup_id" yaml:"setup_id"`
	Identifier string   `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Group      string   `json:"group,omitempty" yaml:"group,omitempty"`
	StepType   StepType `json:"step_type" yaml:"step_type"`
	StartTs    int64    `json:"start_ts,omitempty" yaml:"start_ts,omitempty"`
	RetryIndex int      `json:"retry_index,omitempty" yaml:"retry_index,omitempty"`
}

// ExecutionMetadata carries run-wide information that does not change per level.
type ExecutionMetadata struct {
	PipelineIdentifier string `json:"pipeline_identifier,omitempty" yaml:"pipeline_identifier,omitempty"`
	RunSequence        int    `json:"run_sequence,omitempty" yaml:"run_sequence,omitempty"`
	IsRetry            bool   `json:"is_retry,omitempty" yaml:"is_retry,omitempty"`
}

// Ambiance is the execution context of a single node invocation: the plan
// execution it belongs to and the stack of levels leading to it.
//
// Ambiance values are never modified in place. Every derivation returns a new
// value with its own copy of the levels.
type Ambiance struct {
	PlanExecutionID   string            `json:"plan_execution_id"`
	PlanID            string            `json:"plan_id,omitempty"`
	SetupAbstractions map[string]string `json:"setup_abstractions,omitempty"`
	Metadata          ExecutionMetadata `json:"metadata"`
	Levels            []Level           `json:"levels"`
}

// CloneForChild returns a new Ambiance with level appended as the leaf.
func (a Ambiance) CloneForChild(level Level) Ambiance {
	out := a.Clone(len(a.Levels))
	out.Levels = append(out.Levels, level)
	return out
}

// CloneForFinish returns a new Ambiance without the leaf level.
func (a Ambiance) CloneForFinish() Ambiance {
	if len(a.Levels) == 0 {
		return a.Clone(0)
	}
	return a.Clone(len(a.Levels) - 1)
}

// Clone returns a copy keeping only the first levelsToKeep levels.
// Values outside [0, Depth()] are clamped.
func (a Ambiance) Clone(levelsToKeep int) Ambiance {
	levelsToKeep = max(0, min(levelsToKeep, len(a.Levels)))
	out := a
	out.Levels = slices.Clone(a.Levels[:levelsToKeep])
	if out.Levels == nil {
		out.Levels = []Level{}
	}
	if a.SetupAbstractions != nil {
		out.SetupAbstractions = make(map[string]string, len(a.SetupAbstractions))
		for k, v := range a.SetupAbstractions {
			out.SetupAbstractions[k] = v
		}
	}
	return out
}

// Depth is the number of stacked levels.
func (a Ambiance) Depth() int {
	return len(a.Levels)
}

// CurrentLevel returns the leaf level.
func (a Ambiance) CurrentLevel() (Level, bool) {
	if len(a.Levels) == 0 {
		return Level{}, false
	}
	return a.Levels[len(a.Levels)-1], true
}

// CurrentRuntimeID returns the runtime id of the leaf level, which is also
// the id of the NodeExecution addressed by this ambiance.
func (a Ambiance) CurrentRuntimeID() string {
	lvl, _ := a.CurrentLevel()
	return lvl.RuntimeID
}

// CurrentSetupID returns the plan node id of the leaf level.
func (a Ambiance) CurrentSetupID() string {
	lvl, _ := a.CurrentLevel()
	return lvl.SetupID
}

// StepIdentifier returns the identifier of the leaf level.
func (a Ambiance) StepIdentifier() string {
	lvl, _ := a.CurrentLevel()
	return lvl.Identifier
}

// CurrentStepType returns the step type of the leaf level.
func (a Ambiance) CurrentStepType() StepType {
	lvl, _ := a.CurrentLevel()
	return lvl.StepType
}

// CurrentGroup returns the group of the leaf level.
func (a Ambiance) CurrentGroup() string {
	lvl, _ := a.CurrentLevel()
	return lvl.Group
}

// ParentRuntimeID returns the runtime id of the level right above the leaf.
func (a Ambiance) ParentRuntimeID() string {
	if len(a.Levels) < 2 {
		return ""
	}
	return a.Levels[len(a.Levels)-2].RuntimeID
}

// StageLevel returns the closest enclosing level of category STAGE.
func (a Ambiance) StageLevel() (Level, bool) {
	return a.lastOfCategory(CategoryStage)
}

// StrategyLevel returns the closest enclosing level of category STRATEGY.
func (a Ambiance) StrategyLevel() (Level, bool) {
	return a.lastOfCategory(CategoryStrategy)
}

// StepGroupLevel returns the closest enclosing level of category STEP_GROUP.
func (a Ambiance) StepGroupLevel() (Level, bool) {
	return a.lastOfCategory(CategoryStepGroup)
}

func (a Ambiance) lastOfCategory(c StepCategory) (Level, bool) {
	for i := len(a.Levels) - 1; i >= 0; i-- {
		if a.Levels[i].StepType.Category == c {
			return a.Levels[i], true
		}
	}
	return Level{}, false
}

// IsCurrentStrategyLevelAtStage reports whether the leaf sits under a strategy
// that wraps a stage, i.e. the strategy's parent is the STAGES group, either
// directly or through a FORK.
func (a Ambiance) IsCurrentStrategyLevelAtStage() bool {
	n := len(a.Levels)
	if n < 2 {
		return false
	}
	parent := a.Levels[n-2]
	if parent.Group == GroupStages {
		return true
	}
	if parent.StepType.Category == CategoryFork && n >= 3 {
		return a.Levels[n-3].Group == GroupStages
	}
	return false
}

// AccountID returns the account setup abstraction.
func (a Ambiance) AccountID() string { return a.SetupAbstractions[KeyAccountID] }

// OrgIdentifier returns the organization setup abstraction.
func (a Ambiance) OrgIdentifier() string { return a.SetupAbstractions[KeyOrgIdentifier] }

// ProjectIdentifier returns the project setup abstraction.
func (a Ambiance) ProjectIdentifier() string { return a.SetupAbstractions[KeyProjectIdentifier] }
