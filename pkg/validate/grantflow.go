package validate

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/meshcheck/pkg/graph"
	"github.com/ormasoftchile/meshcheck/pkg/solution"
)

// checkGrantFlow verifies that consumed grants are issued and that every
// security contract is backed by a handoff path carrying its grants.
func checkGrantFlow(m *graph.Model) []Issue {
	var issues []Issue

	// G1: consumed, non-internal grants need an issuer
	for i, g := range m.Grants {
		if g.Internal || len(g.ConsumedBy) == 0 || len(g.IssuedBy) > 0 {
			continue
		}
		is := newIssue(CheckGrantProviderMissing, fmt.Sprintf("grants[%d]", i),
			"grant %q is consumed by %s but issued by no skill", g.Key, strings.Join(g.ConsumedBy, ", "))
		is.Grant = g.Key
		issues = append(issues, is)
	}

	// G2: contract path existence; G3: grant passage on every edge
	for i, c := range m.Contracts {
		if c.Provider == "" || !m.HasSkill(c.Provider) || !m.HasSkill(c.Consumer) {
			continue
		}
		loc := fmt.Sprintf("security_contracts[%d]", i)

		path, ok := m.FindPath(c.Provider, c.Consumer)
		if !ok {
			is := newIssue(CheckContractHandoffPath, loc,
				"contract %q: no handoff path from %q to %q", c.Name, c.Provider, c.Consumer)
			is.Contract, is.Skill = c.Name, c.Consumer
			issues = append(issues, is)
			continue
		}

		nodes := graph.PathNodes(path)
		for _, key := range c.RequiresGrants {
			dropped := droppingEdges(path, key)
			if len(dropped) == 0 {
				continue
			}
			is := newIssue(CheckGrantsPassedMatch, loc,
				"contract %q: grant %q is not passed on %s along %s",
				c.Name, key, strings.Join(dropped, ", "), strings.Join(nodes, " -> "))
			is.Contract, is.Grant, is.Skill = c.Name, key, c.Consumer
			is.Handoffs = dropped
			is.Path = nodes
			issues = append(issues, is)
		}
	}

	return issues
}

// droppingEdges labels every edge of path that does not carry key.
func droppingEdges(path []solution.Handoff, key string) []string {
	var out []string
	for _, h := range path {
		if !h.Carries(key) {
			out = append(out, edgeName(h))
		}
	}
	return out
}

func edgeName(h solution.Handoff) string {
	if h.ID != "" {
		return h.ID
	}
	return h.From + "->" + h.To
}
