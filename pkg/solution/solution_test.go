package solution

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Ecommerce(t *testing.T) {
	sol, err := LoadFile("../../testdata/solutions/ecommerce.yaml")
	require.NoError(t, err)

	assert.Equal(t, "ecommerce-support", sol.ID)
	assert.Len(t, sol.Skills, 5)
	assert.Len(t, sol.Grants, 3)
	assert.Len(t, sol.Handoffs, 3)
	assert.Len(t, sol.Routing, 3)
	assert.Len(t, sol.SecurityContracts, 2)
	require.NotNil(t, sol.Identity)
	assert.Equal(t, "customer", sol.Identity.DefaultActorType)
	assert.Equal(t, RoleGateway, sol.Skills[0].Role)
	assert.True(t, sol.Handoffs[2].Carries("order_loaded"))
	assert.False(t, sol.Handoffs[0].Carries("order_loaded"))
}

func TestLoad_JSON(t *testing.T) {
	doc := `{"id":"s1","skills":[{"id":"a"}],"routing":{"web":{"default_skill":"a"}}}`
	sol, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "s1", sol.ID)
	assert.Equal(t, "a", sol.Routing["web"].DefaultSkill)
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile("../../testdata/solutions/nonexistent.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open solution")
}

func TestLoadFile_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("skills: [unclosed"), 0o644))
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "structural decode")
}

func TestLoadSkillFile_IDFromFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order-support.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Order Support\nprompt: help\n"), 0o644))
	sk, err := LoadSkillFile(path)
	require.NoError(t, err)
	assert.Equal(t, "order-support", sk.ID)
	assert.Equal(t, "Order Support", sk.Name)
}

func TestLoadConnectorsFile_ListAndWrapped(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(list, []byte("- id: a\n  transport: stdio\n- id: b\n  transport: http\n"), 0o644))
	wrapped := filepath.Join(dir, "wrapped.yaml")
	require.NoError(t, os.WriteFile(wrapped, []byte("connectors:\n  - id: c\n"), 0o644))

	got, err := LoadConnectorsFile(list)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsStdio())
	assert.False(t, got[1].IsStdio())

	got, err = LoadConnectorsFile(wrapped)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsStdio(), "empty transport defaults to stdio")
}

func TestCheckSchema_Valid(t *testing.T) {
	sol, err := LoadFile("../../testdata/solutions/ecommerce.yaml")
	require.NoError(t, err)
	assert.Empty(t, CheckSchema(sol))
	assert.Empty(t, CheckSchema(&Solution{}), "no field is required to be non-empty")
}

func TestCheckSchema_InvalidRole(t *testing.T) {
	sol, err := LoadFile("../../testdata/solutions/invalid-role.yaml")
	require.NoError(t, err)
	violations := CheckSchema(sol)
	require.NotEmpty(t, violations)
	found := false
	for _, v := range violations {
		if strings.Contains(v.Path, "skills/0/role") {
			found = true
		}
	}
	assert.True(t, found, "expected a violation at skills/0/role, got %+v", violations)
}

func TestGenerateJSONSchema(t *testing.T) {
	data, err := GenerateJSONSchema()
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, solutionSchemaID, doc["$id"])

	data, err = GenerateSkillJSONSchema()
	require.NoError(t, err)
	assert.Contains(t, string(data), "original_skill_id")
}

func TestResolve_Precedence(t *testing.T) {
	impls := []Skill{
		{ID: "impl-7", Name: "Returns Processor"},
		{ID: "impl-9", Name: "Legacy", OriginalSkillID: "returns-processor"},
		{ID: "returns-processor", Name: "Something else"},
	}

	id, idx := Resolve("returns-processor", impls)
	assert.Equal(t, MatchExactID, id.Match)
	assert.Equal(t, 2, idx)

	id, idx = Resolve("returns_processor", impls[:2])
	assert.Equal(t, MatchNormalizedName, id.Match)
	assert.Equal(t, "impl-7", id.ImplementationID)
	assert.Equal(t, 0, idx)

	id, idx = Resolve("returns-processor", impls[1:2])
	assert.Equal(t, MatchBackReference, id.Match)
	assert.Equal(t, "impl-9", id.ImplementationID)
	assert.Equal(t, 0, idx)
	assert.True(t, id.Resolved())

	id, idx = Resolve("ghost", impls)
	assert.False(t, id.Resolved())
	assert.Equal(t, -1, idx)
	assert.Equal(t, "ghost", id.TopologyID)
}

func TestNormalizeName(t *testing.T) {
	for _, in := range []string{"Order Support", "order-support", "ORDER_SUPPORT", " order\tsupport "} {
		assert.Equal(t, "ordersupport", NormalizeName(in), in)
	}
}

func TestFromMap_RoundTrip(t *testing.T) {
	sol, err := LoadFile("../../testdata/solutions/ecommerce.yaml")
	require.NoError(t, err)
	m, err := ToMap(sol)
	require.NoError(t, err)

	back, err := FromMap(m)
	require.NoError(t, err)
	assert.Equal(t, sol, back)
}

func TestFromMap_UnknownKey(t *testing.T) {
	_, err := FromMap(map[string]any{"id": "x", "skilz": []any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skilz")
}
