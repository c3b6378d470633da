// Package planfile reads plan scenarios replayed by the CLI: pipeline
// variables, the enclosing levels and the nodes to start.
package planfile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/facilitator/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ErrInvalidPlan is returned when a plan file is structurally wrong.
var ErrInvalidPlan = errors.New("invalid plan file")

// Level is an enclosing level (stage, step group, strategy...).
type Level struct {
	Identifier string              `yaml:"identifier"`
	Category   domain.StepCategory `yaml:"category"`
	Type       string              `yaml:"type"`
	Group      string              `yaml:"group"`
}

// Node is one node to start.
type Node struct {
	ID         string              `yaml:"id"`
	Identifier string              `yaml:"identifier"`
	Name       string              `yaml:"name"`
	Type       string              `yaml:"type"`
	Category   domain.StepCategory `yaml:"category"`
	Group      string              `yaml:"group"`
	When       string              `yaml:"when"`
	Skip       string              `yaml:"skip"`
	Module     string              `yaml:"module"`
}

// Plan is a parsed plan file.
type Plan struct {
	PlanID    string            `yaml:"plan_id"`
	Pipeline  string            `yaml:"pipeline"`
	Setup     map[string]string `yaml:"setup"`
	Variables map[string]any    `yaml:"variables"`
	Levels    []Level           `yaml:"levels"`
	Nodes     []Node            `yaml:"nodes"`
}

// Load reads and parses the plan file at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a plan document.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that nodes exist, ids are unique and categories are known.
func (p *Plan) Validate() error {
	if p.PlanID == "" {
		return fmt.Errorf("%w: plan_id is required", ErrInvalidPlan)
	}
	if len(p.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidPlan)
	}
	for i, l := range p.Levels {
		if !knownCategory(l.Category) {
			return fmt.Errorf("%w: level %d has unknown category %q", ErrInvalidPlan, i, l.Category)
		}
	}
	seen := make(map[string]bool, len(p.Nodes))
	for i, n := range p.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has no id", ErrInvalidPlan, i)
		}
		if seen[n.ID] {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidPlan, n.ID)
		}
		seen[n.ID] = true
		if n.Category != "" && !knownCategory(n.Category) {
			return fmt.Errorf("%w: node %q has unknown category %q", ErrInvalidPlan, n.ID, n.Category)
		}
	}
	return nil
}

func knownCategory(c domain.StepCategory) bool {
	switch c {
	case domain.CategoryPipeline, domain.CategoryStages, domain.CategoryStage,
		domain.CategoryStepGroup, domain.CategoryFork, domain.CategoryStrategy, domain.CategoryStep:
		return true
	}
	return false
}

// Parent appends the plan's levels to root, minting runtime ids with newID.
func (p *Plan) Parent(root domain.Ambiance, newID func() string, now time.Time) domain.Ambiance {
	amb := root
	for _, l := range p.Levels {
		amb = amb.CloneForChild(domain.Level{
			RuntimeID:  newID(),
			SetupID:    l.Identifier,
			Identifier: l.Identifier,
			Group:      l.Group,
			StepType:   domain.StepType{Type: l.Type, Category: l.Category},
			StartTs:    now.UnixMilli(),
		})
	}
	return amb
}

// PlanNodes converts the nodes to domain plan nodes. Category defaults to STEP.
func (p *Plan) PlanNodes() []domain.PlanNode {
	out := make([]domain.PlanNode, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		category := n.Category
		if category == "" {
			category = domain.CategoryStep
		}
		identifier := n.Identifier
		if identifier == "" {
			identifier = n.ID
		}
		out = append(out, domain.PlanNode{
			ID:            n.ID,
			Name:          n.Name,
			Identifier:    identifier,
			StepType:      domain.StepType{Type: n.Type, Category: category},
			Group:         n.Group,
			WhenCondition: n.When,
			SkipCondition: n.Skip,
			ServiceName:   n.Module,
		})
	}
	return out
}
