// Package graph builds a read-only index over a solution's skills, grants,
// handoffs, routing table and security contracts, and implements the
// traversals the validator runs over it.
package graph

import (
	"sort"

	"github.com/ormasoftchile/meshcheck/pkg/solution"
)

// Model is an immutable index of one solution snapshot.
// Construction never fails: missing arrays are treated as empty.
type Model struct {
	Skills []solution.TopologySkill

	// SkillOrder lists declared topology skill ids in declaration order,
	// first occurrence only.
	SkillOrder []string
	SkillIDs   map[string]struct{}
	// DuplicateSkills lists ids declared more than once, in order of the
	// repeated declaration.
	DuplicateSkills []string

	Grants        []solution.Grant
	GrantsByKey   map[string]solution.Grant
	DuplicateKeys []string
	// Skill ids issuing or consuming each grant key.
	IssuersByGrant   map[string][]string
	ConsumersByGrant map[string][]string

	Handoffs       []solution.Handoff
	HandoffsByFrom map[string][]solution.Handoff

	Channels         []string // sorted
	RoutingByChannel map[string]solution.RoutingEntry

	Contracts           []solution.SecurityContract
	ContractsByConsumer map[string][]solution.SecurityContract

	PlatformConnectors []solution.PlatformConnector
	Identity           solution.Identity
}

// Build indexes a solution. sol must not be nil.
func Build(sol *solution.Solution) *Model {
	m := &Model{
		SkillIDs:            make(map[string]struct{}, len(sol.Skills)),
		GrantsByKey:         make(map[string]solution.Grant, len(sol.Grants)),
		IssuersByGrant:      make(map[string][]string, len(sol.Grants)),
		ConsumersByGrant:    make(map[string][]string, len(sol.Grants)),
		HandoffsByFrom:      make(map[string][]solution.Handoff),
		RoutingByChannel:    make(map[string]solution.RoutingEntry, len(sol.Routing)),
		ContractsByConsumer: make(map[string][]solution.SecurityContract),
		Skills:              sol.Skills,
		Grants:              sol.Grants,
		Handoffs:            sol.Handoffs,
		Contracts:           sol.SecurityContracts,
		PlatformConnectors:  sol.PlatformConnectors,
	}
	if sol.Identity != nil {
		m.Identity = *sol.Identity
	}

	for _, s := range sol.Skills {
		if _, ok := m.SkillIDs[s.ID]; ok {
			m.DuplicateSkills = append(m.DuplicateSkills, s.ID)
			continue
		}
		m.SkillIDs[s.ID] = struct{}{}
		m.SkillOrder = append(m.SkillOrder, s.ID)
	}

	for _, g := range sol.Grants {
		if _, ok := m.GrantsByKey[g.Key]; ok {
			m.DuplicateKeys = append(m.DuplicateKeys, g.Key)
		}
		m.GrantsByKey[g.Key] = g
		m.IssuersByGrant[g.Key] = append(m.IssuersByGrant[g.Key], g.IssuedBy...)
		m.ConsumersByGrant[g.Key] = append(m.ConsumersByGrant[g.Key], g.ConsumedBy...)
	}

	for _, h := range sol.Handoffs {
		if h.From == "" || h.To == "" {
			continue
		}
		m.HandoffsByFrom[h.From] = append(m.HandoffsByFrom[h.From], h)
	}

	for ch, entry := range sol.Routing {
		m.RoutingByChannel[ch] = entry
		m.Channels = append(m.Channels, ch)
	}
	sort.Strings(m.Channels)

	for _, c := range sol.SecurityContracts {
		m.ContractsByConsumer[c.Consumer] = append(m.ContractsByConsumer[c.Consumer], c)
	}
	return m
}

// HasSkill reports whether id is a declared topology skill.
func (m *Model) HasSkill(id string) bool {
	_, ok := m.SkillIDs[id]
	return ok
}

// Nodes returns every node of the handoff graph in a stable order: declared
// skills first, then undeclared handoff endpoints in declaration order.
func (m *Model) Nodes() []string {
	seen := make(map[string]struct{}, len(m.SkillOrder))
	nodes := make([]string, 0, len(m.SkillOrder))
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		nodes = append(nodes, id)
	}
	for _, id := range m.SkillOrder {
		add(id)
	}
	for _, h := range m.Handoffs {
		add(h.From)
		add(h.To)
	}
	return nodes
}
