package solution

import "strings"

// MatchKind records how a topology skill was paired with its implementation.
type MatchKind string

const (
	MatchNone           MatchKind = ""
	MatchExactID        MatchKind = "exact_id"
	MatchNormalizedName MatchKind = "normalized_name"
	MatchBackReference  MatchKind = "back_reference"
)

// SkillIdentity ties the three identities a skill can carry: its id in the
// solution topology, its implementation record id/name, and the
// original_skill_id back-reference the implementation may declare.
type SkillIdentity struct {
	TopologyID         string    `json:"topology_id,omitempty"`
	ImplementationID   string    `json:"implementation_id,omitempty"`
	ImplementationName string    `json:"implementation_name,omitempty"`
	OriginalSkillID    string    `json:"original_skill_id,omitempty"`
	Match              MatchKind `json:"match,omitempty"`
}

// Resolved reports whether a topology id was paired with an implementation.
func (id SkillIdentity) Resolved() bool {
	return id.TopologyID != "" && id.ImplementationID != ""
}

// Resolve pairs a topology skill id with an implementation skill.
// Precedence is fixed: exact id, then normalized name, then the
// implementation's original_skill_id back-reference. Within each tier the
// first implementation in slice order wins.
func Resolve(topologyID string, impls []Skill) (SkillIdentity, int) {
	if topologyID == "" {
		return SkillIdentity{}, -1
	}
	for i := range impls {
		if impls[i].ID == topologyID {
			return identityOf(topologyID, &impls[i], MatchExactID), i
		}
	}
	want := NormalizeName(topologyID)
	for i := range impls {
		if NormalizeName(impls[i].Name) == want || NormalizeName(impls[i].ID) == want {
			return identityOf(topologyID, &impls[i], MatchNormalizedName), i
		}
	}
	for i := range impls {
		if impls[i].OriginalSkillID == topologyID {
			return identityOf(topologyID, &impls[i], MatchBackReference), i
		}
	}
	return SkillIdentity{TopologyID: topologyID}, -1
}

func identityOf(topologyID string, sk *Skill, kind MatchKind) SkillIdentity {
	return SkillIdentity{
		TopologyID:         topologyID,
		ImplementationID:   sk.ID,
		ImplementationName: sk.Name,
		OriginalSkillID:    sk.OriginalSkillID,
		Match:              kind,
	}
}

// NormalizeName lowercases s and drops whitespace, dashes and underscores,
// so "Order Support", "order-support" and "order_support" compare equal.
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
