package mutate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/meshcheck/pkg/solution"
)

// LoadOpsFile reads an update map from a YAML or JSON file.
func LoadOpsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open ops: %w", err)
	}
	var updates map[string]any
	if err := yaml.Unmarshal(data, &updates); err != nil {
		return nil, fmt.Errorf("parse ops: %w", err)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: %s has no updates", ErrBadOperation, path)
	}
	return updates, nil
}

// ApplyToSolution applies updates to a copy of sol and decodes the result.
func ApplyToSolution(sol *solution.Solution, updates map[string]any) (*solution.Solution, *Outcome, error) {
	doc, err := solution.ToMap(sol)
	if err != nil {
		return nil, nil, err
	}
	out, err := ApplyUpdates(doc, updates)
	if err != nil {
		return nil, nil, err
	}
	next, err := solution.FromMap(out.Document)
	if err != nil {
		return nil, out, err
	}
	return next, out, nil
}

// ApplyToSkill applies updates to a copy of sk and decodes the result.
func ApplyToSkill(sk *solution.Skill, updates map[string]any) (*solution.Skill, *Outcome, error) {
	doc, err := solution.ToMap(sk)
	if err != nil {
		return nil, nil, err
	}
	out, err := ApplyUpdates(doc, updates)
	if err != nil {
		return nil, nil, err
	}
	next, err := solution.SkillFromMap(out.Document)
	if err != nil {
		return nil, out, err
	}
	return next, out, nil
}
