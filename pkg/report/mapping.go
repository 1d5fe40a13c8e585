package report

import "github.com/ormasoftchile/meshcheck/pkg/solution"

// MappingStatus states how a skill participates in the mapping.
type MappingStatus string

const (
	Mapped   MappingStatus = "mapped"   // topology skill with an implementation
	Unmapped MappingStatus = "unmapped" // topology skill without an implementation
	Orphan   MappingStatus = "orphan"   // implementation without a topology skill
)

// SkillMapping pairs a topology skill with its implementation.
type SkillMapping struct {
	solution.SkillIdentity
	Status   MappingStatus `json:"status"`
	NotFound bool          `json:"not_found,omitempty"`
}

// MapSkills resolves every topology skill against impls with
// solution.Resolve, then lists implementations no topology skill claimed.
func MapSkills(topology []solution.TopologySkill, impls []solution.Skill) []SkillMapping {
	claimed := make([]bool, len(impls))
	out := make([]SkillMapping, 0, len(topology)+len(impls))

	for _, ts := range topology {
		id, idx := solution.Resolve(ts.ID, impls)
		if idx < 0 {
			out = append(out, SkillMapping{SkillIdentity: id, Status: Unmapped})
			continue
		}
		claimed[idx] = true
		out = append(out, SkillMapping{SkillIdentity: id, Status: Mapped, NotFound: impls[idx].Missing()})
	}

	for i := range impls {
		if claimed[i] {
			continue
		}
		sk := &impls[i]
		out = append(out, SkillMapping{
			SkillIdentity: solution.SkillIdentity{
				ImplementationID:   sk.ID,
				ImplementationName: sk.Name,
				OriginalSkillID:    sk.OriginalSkillID,
			},
			Status:   Orphan,
			NotFound: sk.Missing(),
		})
	}
	return out
}
