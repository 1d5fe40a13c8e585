package solution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and structurally decodes a solution document.
// Both YAML and JSON are accepted; JSON is selected by the .json extension.
func LoadFile(path string) (*Solution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open solution: %w", err)
	}
	return decode[Solution](data, isJSON(path))
}

// Load reads a YAML (or JSON) solution document from a reader.
// Unknown fields are tolerated: stored documents carry store metadata.
func Load(r io.Reader) (*Solution, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read solution: %w", err)
	}
	return decode[Solution](data, looksLikeJSON(data))
}

// LoadSkillFile reads and structurally decodes an implementation skill.
func LoadSkillFile(path string) (*Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open skill: %w", err)
	}
	sk, err := decode[Skill](data, isJSON(path))
	if err != nil {
		return nil, err
	}
	if sk.ID == "" {
		// File-per-skill layouts may omit the id; the file name carries it.
		sk.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sk, nil
}

// LoadConnectorsFile reads a deploy-payload connector list.
// The document is either a bare list or an object with a "connectors" key.
func LoadConnectorsFile(path string) ([]Connector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open connectors: %w", err)
	}
	var wrapped struct {
		Connectors []Connector `yaml:"connectors" json:"connectors"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err == nil && wrapped.Connectors != nil {
		return wrapped.Connectors, nil
	}
	var list []Connector
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("structural decode: %w", err)
	}
	return list, nil
}

func decode[T any](data []byte, asJSON bool) (*T, error) {
	var v T
	if asJSON {
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("structural decode: %w", err)
		}
		return &v, nil
	}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("structural decode: %w", err)
	}
	return &v, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
