package solution

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ToMap converts a typed document into its generic JSON-shaped form.
func ToMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return m, nil
}

// FromMap decodes a generic document (for example the output of the mutation
// DSL) back into a Solution. Unknown keys are reported as errors so a typo in
// an update path does not silently disappear.
func FromMap(m map[string]any) (*Solution, error) {
	var sol Solution
	if err := decodeMap(m, &sol); err != nil {
		return nil, fmt.Errorf("decode solution: %w", err)
	}
	return &sol, nil
}

// SkillFromMap decodes a generic document into an implementation skill.
func SkillFromMap(m map[string]any) (*Skill, error) {
	var sk Skill
	if err := decodeMap(m, &sk); err != nil {
		return nil, fmt.Errorf("decode skill: %w", err)
	}
	return &sk, nil
}

func decodeMap(m map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}
