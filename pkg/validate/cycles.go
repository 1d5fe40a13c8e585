package validate

import (
	"strings"

	"github.com/ormasoftchile/meshcheck/pkg/graph"
)

func checkCycles(m *graph.Model) []Issue {
	var issues []Issue
	for _, cycle := range m.FindCycles() {
		is := newIssue(CheckCircularHandoffs, "handoffs",
			"circular handoff chain: %s", strings.Join(cycle, " -> "))
		is.Cycle = cycle
		is.Skill = cycle[0]
		issues = append(issues, is)
	}
	return issues
}
