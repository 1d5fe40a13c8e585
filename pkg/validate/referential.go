package validate

import (
	"fmt"

	"github.com/ormasoftchile/meshcheck/pkg/graph"
)

// checkReferences confirms every cross-reference resolves to a declared skill.
func checkReferences(m *graph.Model) []Issue {
	var issues []Issue

	// R1: skill ids and grant keys are unique
	for _, id := range m.DuplicateSkills {
		is := newIssue(CheckSkillIDUnique, "skills", "duplicate skill id %q", id)
		is.Skill = id
		issues = append(issues, is)
	}
	for _, key := range m.DuplicateKeys {
		is := newIssue(CheckGrantKeyUnique, "grants", "duplicate grant key %q", key)
		is.Grant = key
		issues = append(issues, is)
	}

	// R2: grant issuers and consumers
	for i, g := range m.Grants {
		for _, id := range g.IssuedBy {
			if m.HasSkill(id) {
				continue
			}
			is := newIssue(CheckGrantProviderExists, fmt.Sprintf("grants[%d].issued_by", i),
				"grant %q is issued by unknown skill %q", g.Key, id)
			is.Grant, is.Skill = g.Key, id
			issues = append(issues, is)
		}
		for _, id := range g.ConsumedBy {
			if m.HasSkill(id) {
				continue
			}
			is := newIssue(CheckGrantConsumerExists, fmt.Sprintf("grants[%d].consumed_by", i),
				"grant %q is consumed by unknown skill %q", g.Key, id)
			is.Grant, is.Skill = g.Key, id
			issues = append(issues, is)
		}
	}

	// R3: handoff endpoints
	for i, h := range m.Handoffs {
		if !m.HasSkill(h.From) {
			is := newIssue(CheckHandoffSourceExists, fmt.Sprintf("handoffs[%d].from", i),
				"handoff %s starts at unknown skill %q", handoffLabel(h.ID, h.From, h.To), h.From)
			is.Handoff, is.Skill = h.ID, h.From
			issues = append(issues, is)
		}
		if !m.HasSkill(h.To) {
			is := newIssue(CheckHandoffTargetExists, fmt.Sprintf("handoffs[%d].to", i),
				"handoff %s targets unknown skill %q", handoffLabel(h.ID, h.From, h.To), h.To)
			is.Handoff, is.Skill = h.ID, h.To
			issues = append(issues, is)
		}
	}

	// R4: routing targets
	for _, ch := range m.Channels {
		target := m.RoutingByChannel[ch].DefaultSkill
		if m.HasSkill(target) {
			continue
		}
		is := newIssue(CheckRoutingTargetExists, "routing."+ch+".default_skill",
			"channel %q routes to unknown skill %q", ch, target)
		is.Channel, is.Skill = ch, target
		issues = append(issues, is)
	}

	// R5: security contract endpoints
	for i, c := range m.Contracts {
		if !m.HasSkill(c.Consumer) {
			is := newIssue(CheckContractConsumerExists, fmt.Sprintf("security_contracts[%d].consumer", i),
				"contract %q names unknown consumer %q", c.Name, c.Consumer)
			is.Contract, is.Skill = c.Name, c.Consumer
			issues = append(issues, is)
		}
		if c.Provider != "" && !m.HasSkill(c.Provider) {
			is := newIssue(CheckContractProviderExists, fmt.Sprintf("security_contracts[%d].provider", i),
				"contract %q names unknown provider %q", c.Name, c.Provider)
			is.Contract, is.Skill = c.Name, c.Provider
			issues = append(issues, is)
		}
	}

	return issues
}

func handoffLabel(id, from, to string) string {
	if id != "" {
		return fmt.Sprintf("%q", id)
	}
	return fmt.Sprintf("%s->%s", from, to)
}
