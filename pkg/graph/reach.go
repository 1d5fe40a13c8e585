package graph

// Reachable returns the set of skill ids that can receive a conversation:
// any channel's default skill and any handoff endpoint.
func (m *Model) Reachable() map[string]bool {
	reach := make(map[string]bool)
	for _, ch := range m.Channels {
		if s := m.RoutingByChannel[ch].DefaultSkill; s != "" {
			reach[s] = true
		}
	}
	for _, h := range m.Handoffs {
		if h.From != "" {
			reach[h.From] = true
		}
		if h.To != "" {
			reach[h.To] = true
		}
	}
	return reach
}

// Orphans lists declared skills absent from Reachable, in declaration order.
func (m *Model) Orphans() []string {
	reach := m.Reachable()
	var out []string
	for _, id := range m.SkillOrder {
		if !reach[id] {
			out = append(out, id)
		}
	}
	return out
}

// Successors returns the distinct handoff targets of id in declaration order.
func (m *Model) Successors(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, h := range m.HandoffsByFrom[id] {
		if !seen[h.To] {
			seen[h.To] = true
			out = append(out, h.To)
		}
	}
	return out
}
