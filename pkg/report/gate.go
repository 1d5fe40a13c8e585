package report

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// DefaultGate passes reports without errors and with a score of at least 80.
const DefaultGate = "errors == 0 && score >= 80"

// GateEnv returns the variables a gate expression can reference.
func (r *Report) GateEnv() map[string]any {
	return map[string]any{
		"score":    r.Summary.Score,
		"errors":   r.Summary.Errors,
		"warnings": r.Summary.Warnings,
		"info":     r.Summary.Info,
		"total":    r.Summary.Total,
		"status":   string(r.Summary.Status),
		"valid":    r.Summary.Errors == 0,
	}
}

// Gate evaluates a boolean expr-lang expression against the report summary,
// e.g. `valid && warnings < 3`.
func Gate(expression string, r *Report) (bool, error) {
	if expression == "" {
		expression = DefaultGate
	}
	env := r.GateEnv()
	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile gate %q: %w", expression, err)
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval gate %q: %w", expression, err)
	}
	pass, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("gate %q did not return bool (got %T)", expression, output)
	}
	return pass, nil
}
