package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormasoftchile/meshcheck/pkg/solution"
)

func skills(ids ...string) []solution.TopologySkill {
	out := make([]solution.TopologySkill, len(ids))
	for i, id := range ids {
		out[i] = solution.TopologySkill{ID: id}
	}
	return out
}

func handoff(from, to string, grants ...string) solution.Handoff {
	return solution.Handoff{ID: from + "-" + to, From: from, To: to, GrantsPassed: grants}
}

func TestBuild_Empty(t *testing.T) {
	m := Build(&solution.Solution{ID: "empty"})
	assert.Empty(t, m.SkillOrder)
	assert.Empty(t, m.Channels)
	assert.Empty(t, m.Nodes())
	assert.Empty(t, m.FindCycles())
	assert.Empty(t, m.Orphans())
	_, ok := m.FindPath("a", "b")
	assert.False(t, ok)
}

func TestBuild_Indexes(t *testing.T) {
	sol, err := solution.LoadFile("../../testdata/solutions/ecommerce.yaml")
	require.NoError(t, err)
	m := Build(sol)

	assert.Len(t, m.SkillOrder, 5)
	assert.True(t, m.HasSkill("returns-processor"))
	assert.False(t, m.HasSkill("ghost"))
	assert.Equal(t, []string{"backoffice", "voice", "web"}, m.Channels)
	assert.Equal(t, []string{"identity-assurance"}, m.IssuersByGrant["customer_verified"])
	assert.Equal(t, []string{"order-support", "returns-processor"}, m.ConsumersByGrant["customer_verified"])
	assert.Len(t, m.ContractsByConsumer["returns-processor"], 2)
	assert.Empty(t, m.DuplicateSkills)
	assert.Empty(t, m.DuplicateKeys)
}

func TestBuild_Duplicates(t *testing.T) {
	m := Build(&solution.Solution{
		Skills: skills("a", "b", "a"),
		Grants: []solution.Grant{{Key: "g"}, {Key: "g", IssuedBy: []string{"b"}}},
	})
	assert.Equal(t, []string{"a", "b"}, m.SkillOrder)
	assert.Equal(t, []string{"a"}, m.DuplicateSkills)
	assert.Equal(t, []string{"g"}, m.DuplicateKeys)
	assert.Equal(t, []string{"b"}, m.GrantsByKey["g"].IssuedBy, "later grant shadows earlier")
}

func TestBuild_EmptyEndpointsExcludedFromTraversal(t *testing.T) {
	m := Build(&solution.Solution{
		Skills:   skills("a"),
		Handoffs: []solution.Handoff{handoff("a", ""), handoff("", "a")},
	})
	assert.Empty(t, m.HandoffsByFrom)
	assert.Equal(t, []string{"a"}, m.Nodes())
}

func TestFindPath_MultiHop(t *testing.T) {
	m := Build(&solution.Solution{
		Skills: skills("p", "m", "c"),
		Handoffs: []solution.Handoff{
			handoff("p", "m", "token"),
			handoff("m", "c"),
		},
	})
	path, ok := m.FindPath("p", "c")
	require.True(t, ok)
	require.Len(t, path, 2)
	assert.Equal(t, []string{"p", "m", "c"}, PathNodes(path))
}

func TestFindPath_PrefersFirstDiscovered(t *testing.T) {
	m := Build(&solution.Solution{
		Skills: skills("p", "x", "y", "c"),
		Handoffs: []solution.Handoff{
			handoff("p", "x"),
			handoff("p", "y"),
			handoff("y", "c"),
			handoff("x", "c"),
		},
	})
	path, ok := m.FindPath("p", "c")
	require.True(t, ok)
	assert.Equal(t, []string{"p", "x", "c"}, PathNodes(path))
}

func TestFindPath_ShorterWins(t *testing.T) {
	m := Build(&solution.Solution{
		Skills: skills("p", "x", "c"),
		Handoffs: []solution.Handoff{
			handoff("p", "x"),
			handoff("x", "c"),
			handoff("p", "c"),
		},
	})
	path, ok := m.FindPath("p", "c")
	require.True(t, ok)
	assert.Len(t, path, 1)
}

func TestFindPath_SelfRequiresEdge(t *testing.T) {
	m := Build(&solution.Solution{Skills: skills("a", "b")})
	_, ok := m.FindPath("a", "a")
	assert.False(t, ok, "a path must have at least one edge")

	m = Build(&solution.Solution{
		Skills:   skills("a", "b"),
		Handoffs: []solution.Handoff{handoff("a", "b"), handoff("b", "a")},
	})
	path, ok := m.FindPath("a", "a")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "a"}, PathNodes(path))
}

func TestFindPath_TerminatesOnCycles(t *testing.T) {
	m := Build(&solution.Solution{
		Skills: skills("a", "b", "c", "d"),
		Handoffs: []solution.Handoff{
			handoff("a", "b"), handoff("b", "c"), handoff("c", "a"), handoff("b", "a"),
		},
	})
	_, ok := m.FindPath("a", "d")
	assert.False(t, ok)
}

func TestFindCycles(t *testing.T) {
	tests := []struct {
		name     string
		handoffs []solution.Handoff
		want     [][]string
	}{
		{"two-node", []solution.Handoff{handoff("a", "b"), handoff("b", "a")}, [][]string{{"a", "b", "a"}}},
		{"self-loop", []solution.Handoff{handoff("a", "a")}, [][]string{{"a", "a"}}},
		{"chain", []solution.Handoff{handoff("a", "b"), handoff("b", "c")}, nil},
		{"multi-edge", []solution.Handoff{handoff("a", "b"), handoff("a", "b"), handoff("b", "a")}, [][]string{{"a", "b", "a"}}},
		{"disjoint", []solution.Handoff{
			handoff("a", "b"), handoff("b", "a"),
			handoff("c", "d"), handoff("d", "e"), handoff("e", "c"),
		}, [][]string{{"a", "b", "a"}, {"c", "d", "e", "c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Build(&solution.Solution{Skills: skills("a", "b", "c", "d", "e"), Handoffs: tt.handoffs})
			assert.Equal(t, tt.want, m.FindCycles())
		})
	}
}

func TestFindCycles_Reentrant(t *testing.T) {
	m := Build(&solution.Solution{
		Skills:   skills("a", "b"),
		Handoffs: []solution.Handoff{handoff("a", "b"), handoff("b", "a")},
	})
	assert.Equal(t, m.FindCycles(), m.FindCycles())
}

func TestFindCycles_UndeclaredEndpoints(t *testing.T) {
	m := Build(&solution.Solution{
		Handoffs: []solution.Handoff{handoff("x", "y"), handoff("y", "x")},
	})
	assert.Equal(t, [][]string{{"x", "y", "x"}}, m.FindCycles())
}

func TestFindCycles_DenseGraphTerminates(t *testing.T) {
	const n = 40
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("s%02d", i)
	}
	var hs []solution.Handoff
	for _, a := range ids {
		for _, b := range ids {
			if a != b {
				hs = append(hs, handoff(a, b))
			}
		}
	}
	m := Build(&solution.Solution{Skills: skills(ids...), Handoffs: hs})
	assert.NotEmpty(t, m.FindCycles())
	_, ok := m.FindPath(ids[0], ids[n-1])
	assert.True(t, ok)
}

func TestOrphans(t *testing.T) {
	m := Build(&solution.Solution{
		Skills:  skills("connected", "orphan"),
		Routing: map[string]solution.RoutingEntry{"web": {DefaultSkill: "connected"}},
	})
	assert.Equal(t, []string{"orphan"}, m.Orphans())
	assert.True(t, m.Reachable()["connected"])
}

func TestSuccessors(t *testing.T) {
	m := Build(&solution.Solution{
		Skills:   skills("a", "b", "c"),
		Handoffs: []solution.Handoff{handoff("a", "c"), handoff("a", "b"), handoff("a", "c")},
	})
	assert.Equal(t, []string{"c", "b"}, m.Successors("a"))
}
