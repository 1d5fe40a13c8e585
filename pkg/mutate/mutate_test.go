package mutate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormasoftchile/meshcheck/pkg/solution"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

func skillDoc() map[string]any {
	return map[string]any{
		"id":   "order-support",
		"name": "Order Support",
		"tools": []any{
			map[string]any{"id": "t1", "name": "lookup_order", "description": "old"},
			map[string]any{"name": "cancel_order"},
		},
		"guardrails": map[string]any{
			"never": []any{"share card numbers"},
		},
	}
}

func TestParse(t *testing.T) {
	cmds, err := Parse(map[string]any{
		"tools_push":               map[string]any{"name": "x"},
		"description":              "d",
		"intents.supported_delete": "greet",
		"tools_rename":             map[string]any{"from": "a", "to": "b"},
	})
	require.NoError(t, err)
	require.Len(t, cmds, 4)
	assert.Equal(t, Command{Op: OpSet, Path: "description", Value: "d"}, cmds[0])
	assert.Equal(t, OpDelete, cmds[1].Op)
	assert.Equal(t, "intents.supported", cmds[1].Path)
	assert.Equal(t, OpPush, cmds[2].Op)
	assert.Equal(t, OpRename, cmds[3].Op)

	_, err = Parse(map[string]any{"_push": 1})
	assert.ErrorIs(t, err, ErrBadOperation)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	doc := skillDoc()
	_, err := ApplyUpdates(doc, map[string]any{
		"tools_push":   map[string]any{"name": "refund"},
		"name":         "Orders",
		"tools_update": map[string]any{"id": "t1", "description": "new"},
	})
	require.NoError(t, err)
	assert.Equal(t, skillDoc(), doc)
}

func TestApply_PushInsertsOrMerges(t *testing.T) {
	out, err := ApplyUpdates(skillDoc(), map[string]any{
		"tools_push": []any{
			map[string]any{"name": "refund"},
			map[string]any{"id": "t1", "description": "merged"},
		},
	})
	require.NoError(t, err)
	tools := out.Document["tools"].([]any)
	require.Len(t, tools, 3)
	first := tools[0].(map[string]any)
	assert.Equal(t, "merged", first["description"])
	assert.Equal(t, "lookup_order", first["name"], "merge keeps untouched fields")
	assert.Equal(t, "refund", tools[2].(map[string]any)["name"])
}

func TestApply_MatcherPriority(t *testing.T) {
	doc := map[string]any{"items": []any{
		map[string]any{"id": "a", "name": "same"},
		map[string]any{"id": "b", "name": "same"},
	}}
	// id wins over name: the probe matches b, not the first "same".
	out, err := ApplyUpdates(doc, map[string]any{
		"items_update": map[string]any{"id": "b", "name": "same", "x": 1},
	})
	require.NoError(t, err)
	items := out.Document["items"].([]any)
	assert.NotContains(t, items[0].(map[string]any), "x")
	assert.Equal(t, 1, items[1].(map[string]any)["x"])
}

func TestApply_Delete(t *testing.T) {
	out, err := ApplyUpdates(skillDoc(), map[string]any{
		"tools_delete":            "cancel_order",
		"guardrails.never_delete": "share card numbers",
	})
	require.NoError(t, err)
	assert.Len(t, out.Document["tools"], 1)
	assert.Empty(t, out.Document["guardrails"].(map[string]any)["never"])
	assert.Empty(t, out.Rejected)

	out, err = ApplyUpdates(skillDoc(), map[string]any{"tools_delete": "ghost"})
	require.NoError(t, err)
	require.Len(t, out.Rejected, 1)
	assert.Equal(t, "no matching item", out.Rejected[0].Reason)
}

func TestApply_UpdateNeverInserts(t *testing.T) {
	out, err := ApplyUpdates(skillDoc(), map[string]any{
		"tools_update": map[string]any{"name": "brand_new", "description": "x"},
	})
	require.NoError(t, err)
	assert.Len(t, out.Document["tools"], 2)
	assert.Len(t, out.Rejected, 1)
}

func TestApply_Rename(t *testing.T) {
	out, err := ApplyUpdates(skillDoc(), map[string]any{
		"tools_rename": map[string]any{"from": "cancel_order", "to": "void_order"},
	})
	require.NoError(t, err)
	assert.Equal(t, "void_order", out.Document["tools"].([]any)[1].(map[string]any)["name"])

	_, err = ApplyUpdates(skillDoc(), map[string]any{"tools_rename": "cancel_order"})
	assert.ErrorIs(t, err, ErrBadOperation)
}

func TestApply_ProtectedDirectSetRejected(t *testing.T) {
	for _, path := range ProtectedPaths {
		t.Run(path, func(t *testing.T) {
			out, err := ApplyUpdates(skillDoc(), map[string]any{path: []any{}})
			require.NoError(t, err)
			require.Len(t, out.Rejected, 1)
			assert.Empty(t, out.Applied)
		})
	}
	out, err := ApplyUpdates(skillDoc(), map[string]any{"tools": []any{}})
	require.NoError(t, err)
	assert.Len(t, out.Document["tools"], 2, "protected array left untouched")
}

func TestApply_SetCreatesIntermediate(t *testing.T) {
	out, err := ApplyUpdates(map[string]any{}, map[string]any{"routing.web.default_skill": "gw"})
	require.NoError(t, err)
	web := out.Document["routing"].(map[string]any)["web"].(map[string]any)
	assert.Equal(t, "gw", web["default_skill"])
}

func TestApply_PushOnScalarFails(t *testing.T) {
	_, err := ApplyUpdates(skillDoc(), map[string]any{"name_push": "x"})
	assert.ErrorIs(t, err, ErrBadOperation)
}

func TestApplyToSolution_ThenValidate(t *testing.T) {
	sol, err := solution.LoadFile("../../testdata/solutions/ecommerce.yaml")
	require.NoError(t, err)

	next, out, err := ApplyToSolution(sol, map[string]any{
		"handoffs_update": map[string]any{"id": "orders-to-returns", "grants_passed": []any{"customer_verified"}},
	})
	require.NoError(t, err)
	assert.Len(t, out.Applied, 1)
	assert.Equal(t, []string{"customer_verified", "order_loaded"}, sol.Handoffs[2].GrantsPassed, "input untouched")

	res, err := validate.Validate(next)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.Has(validate.CheckGrantsPassedMatch))
}

func TestApplyToSkill(t *testing.T) {
	sk := &solution.Skill{ID: "s", Tools: []solution.Tool{{Name: "a"}}}
	next, _, err := ApplyToSkill(sk, map[string]any{
		"tools_push": map[string]any{"name": "b"},
		"prompt":     "be brief",
	})
	require.NoError(t, err)
	assert.Len(t, next.Tools, 2)
	assert.Equal(t, "be brief", next.Prompt)
	assert.Len(t, sk.Tools, 1)
}

func TestLoadOpsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ops.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Renamed\nskills_delete: refund-approval\n"), 0o644))
	updates, err := LoadOpsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "refund-approval", updates["skills_delete"])

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte(""), 0o644))
	_, err = LoadOpsFile(empty)
	assert.ErrorIs(t, err, ErrBadOperation)
}
