package validate

import "github.com/ormasoftchile/meshcheck/pkg/graph"

func checkReachability(m *graph.Model) []Issue {
	var issues []Issue
	for _, id := range m.Orphans() {
		is := newIssue(CheckNoOrphanSkills, "skills",
			"skill %q is not reachable from any routing entry or handoff", id)
		is.Skill = id
		issues = append(issues, is)
	}
	return issues
}
