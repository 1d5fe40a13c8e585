package solution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:generate go run ../../scripts/gen-schema.go -out ../../schemas

const (
	solutionSchemaID = "https://github.com/ormasoftchile/meshcheck/schemas/solution-v1.json"
	skillSchemaID    = "https://github.com/ormasoftchile/meshcheck/schemas/skill-v1.json"
)

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from the
// Go Solution struct using invopop/jsonschema.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Solution{})
	s.ID = solutionSchemaID
	s.Title = "Skill Solution v1"
	s.Description = "Schema for solution topology documents: skills, grants, handoffs, routing and security contracts"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// GenerateSkillJSONSchema produces the JSON Schema for implementation skills.
func GenerateSkillJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Skill{})
	s.ID = skillSchemaID
	s.Title = "Implementation Skill v1"
	s.Description = "Schema for implementation skill documents"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal skill schema: %w", err)
	}
	return data, nil
}

// SchemaViolation is one semantic (JSON Schema) failure.
type SchemaViolation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

var (
	compileOnce    sync.Once
	compiledSchema *sjsonschema.Schema
	compileErr     error
)

func solutionSchema() (*sjsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := GenerateJSONSchema()
		if err != nil {
			compileErr = fmt.Errorf("generate schema: %w", err)
			return
		}
		doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal schema: %w", err)
			return
		}
		c := sjsonschema.NewCompiler()
		if err := c.AddResource(solutionSchemaID, doc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(solutionSchemaID)
	})
	return compiledSchema, compileErr
}

// CheckSchema validates a decoded solution against the generated JSON Schema.
// The document is re-marshalled from the typed value, so decode-level type
// errors have already been reported by the loader; this phase catches enum,
// length and shape violations.
func CheckSchema(sol *Solution) []SchemaViolation {
	sch, err := solutionSchema()
	if err != nil {
		return []SchemaViolation{{Message: err.Error()}}
	}
	data, err := json.Marshal(sol)
	if err != nil {
		return []SchemaViolation{{Message: fmt.Sprintf("marshal for schema validation: %v", err)}}
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []SchemaViolation{{Message: fmt.Sprintf("unmarshal document: %v", err)}}
	}

	err = sch.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*sjsonschema.ValidationError)
	if !ok {
		return []SchemaViolation{{Message: err.Error()}}
	}
	printer := message.NewPrinter(language.English)
	var out []SchemaViolation
	for _, cause := range flattenValidationErrors(ve) {
		out = append(out, SchemaViolation{
			Path:    "/" + strings.Join(cause.InstanceLocation, "/"),
			Message: cause.ErrorKind.LocalizedString(printer),
		})
	}
	return out
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
