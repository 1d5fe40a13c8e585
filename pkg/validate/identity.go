package validate

import (
	"fmt"

	"github.com/ormasoftchile/meshcheck/pkg/graph"
)

// checkIdentity validates the actor model. The default actor type and admin
// roles are checked against the declared actor types even when none are
// declared.
func checkIdentity(m *graph.Model) []Issue {
	id := m.Identity

	var issues []Issue
	if len(id.ActorTypes) == 0 {
		issues = append(issues, newIssue(CheckIdentityActorTypes, "identity.actor_types",
			"no actor types defined"))
	}

	known := make(map[string]bool, len(id.ActorTypes))
	for _, t := range id.ActorTypes {
		known[t] = true
	}
	if id.DefaultActorType != "" && !known[id.DefaultActorType] {
		issues = append(issues, newIssue(CheckIdentityDefaultActor, "identity.default_actor_type",
			"default actor type %q is not a declared actor type", id.DefaultActorType))
	}
	for i, role := range id.AdminRoles {
		if !known[role] {
			issues = append(issues, newIssue(CheckIdentityAdminRoles, fmt.Sprintf("identity.admin_roles[%d]", i),
				"admin role %q is not a declared actor type", role))
		}
	}
	return issues
}
