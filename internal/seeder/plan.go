package seeder

import (
	"fmt"
	"os"

	"github.com/Rana718/botseed/internal/schema"
	"gopkg.in/yaml.v3"
)

// Plan lists what one population pass creates. Steps may name the same
// entity more than once, e.g. one step per Integration type.
type Plan struct {
	Steps []Step `yaml:"steps"`
}

type Step struct {
	Entity    string        `yaml:"entity"`
	Count     int           `yaml:"count"`
	Overrides schema.Values `yaml:"overrides,omitempty"`
	Children  []Nested      `yaml:"children,omitempty"`
}

// Nested creates PerParent instances of Entity for every instance created
// by the owning step, each bound to that parent through Column.
type Nested struct {
	Entity    string        `yaml:"entity"`
	PerParent int           `yaml:"per_parent"`
	Column    string        `yaml:"column,omitempty"` // needed only when Entity has several relations to the parent
	Overrides schema.Values `yaml:"overrides,omitempty"`
}

// DefaultPlan is the stock development dataset.
func DefaultPlan() Plan {
	return Plan{Steps: []Step{
		{Entity: schema.User, Count: 5},
		{Entity: schema.Integration, Count: 2, Overrides: schema.Values{"type": schema.IntegrationCRM}},
		{Entity: schema.Integration, Count: 2, Overrides: schema.Values{"type": schema.IntegrationMessenger}},
		{Entity: schema.Segment, Count: 3},
		{Entity: schema.ContactSource, Count: 3},
		{Entity: schema.Contact, Count: 20},
		{Entity: schema.BotScript, Count: 2},
		{Entity: schema.Messenger, Count: 3},
		{Entity: schema.Conversation, Count: 15, Children: []Nested{
			{Entity: schema.Message, PerParent: 10},
		}},
		{Entity: schema.Task, Count: 10},
	}}
}

func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to read plan file: %w", err)
	}
	return ParsePlan(data)
}

func ParsePlan(data []byte) (Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return Plan{}, fmt.Errorf("failed to parse plan: %w", err)
	}
	if len(plan.Steps) == 0 {
		return Plan{}, fmt.Errorf("plan has no steps")
	}
	for _, step := range plan.Steps {
		intsToInt64(step.Overrides)
		for _, child := range step.Children {
			intsToInt64(child.Overrides)
		}
	}
	return plan, nil
}

// Counts returns the number of instances each entity's steps request,
// nested children included (per_parent × parent count).
func (p Plan) Counts() map[string]int {
	counts := make(map[string]int)
	for _, step := range p.Steps {
		counts[step.Entity] += step.Count
		for _, child := range step.Children {
			counts[child.Entity] += child.PerParent * step.Count
		}
	}
	return counts
}

// closed lists entities the plan names with a total count of zero.
func (p Plan) closed() []string {
	var out []string
	counts := p.Counts()
	seen := make(map[string]bool)
	for _, step := range p.Steps {
		if seen[step.Entity] {
			continue
		}
		seen[step.Entity] = true
		if counts[step.Entity] == 0 {
			out = append(out, step.Entity)
		}
	}
	return out
}

// childColumn picks the relation column that binds a nested child to its parent.
func childColumn(s *schema.Schema, parent string, child Nested) (string, error) {
	e, ok := s.Entity(child.Entity)
	if !ok {
		return "", &PlanError{Entity: child.Entity, Reason: "entity is not declared"}
	}
	if child.Column != "" {
		rel, ok := e.Relation(child.Column)
		if !ok || rel.Target != parent {
			return "", &PlanError{Entity: child.Entity, Reason: fmt.Sprintf("column %q does not reference %s", child.Column, parent)}
		}
		return child.Column, nil
	}

	rels := e.RelationsTo(parent)
	switch len(rels) {
	case 0:
		return "", &PlanError{Entity: child.Entity, Reason: fmt.Sprintf("has no relation to %s", parent)}
	case 1:
		return rels[0].Column, nil
	default:
		return "", &PlanError{Entity: child.Entity, Reason: fmt.Sprintf("has several relations to %s, set column", parent)}
	}
}

func (p Plan) validate(s *schema.Schema, order []string) error {
	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}

	checkOverrides := func(entity string, overrides schema.Values) error {
		e, _ := s.Entity(entity)
		for col, v := range overrides {
			if reason := overrideProblem(e, col, v); reason != "" {
				return &PlanError{Entity: entity, Reason: fmt.Sprintf("override %q: %s", col, reason)}
			}
		}
		return nil
	}

	for _, step := range p.Steps {
		if _, ok := s.Entity(step.Entity); !ok {
			return &PlanError{Entity: step.Entity, Reason: "entity is not declared"}
		}
		if step.Count < 0 {
			return &PlanError{Entity: step.Entity, Reason: "count must not be negative"}
		}
		if err := checkOverrides(step.Entity, step.Overrides); err != nil {
			return err
		}

		for _, child := range step.Children {
			col, err := childColumn(s, step.Entity, child)
			if err != nil {
				return err
			}
			if child.PerParent < 0 {
				return &PlanError{Entity: child.Entity, Reason: "per_parent must not be negative"}
			}
			if position[child.Entity] <= position[step.Entity] {
				return &PlanError{Entity: child.Entity, Reason: fmt.Sprintf("is ordered before its parent %s", step.Entity)}
			}
			if err := checkOverrides(child.Entity, child.Overrides); err != nil {
				return err
			}
			if _, pinned := child.Overrides[col]; pinned {
				return &PlanError{Entity: child.Entity, Reason: fmt.Sprintf("column %q is bound to the parent and cannot be overridden", col)}
			}
		}
	}
	return nil
}
