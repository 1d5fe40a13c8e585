package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormasoftchile/meshcheck/pkg/solution"
)

func bridged(name, conn string) solution.Tool {
	return solution.Tool{Name: name, Source: &solution.ToolSource{Type: solution.SourceMCPBridge, ConnectionID: conn}}
}

func deployFixture() (*solution.Solution, *DeployContext) {
	sol := &solution.Solution{
		ID: "crm-desk",
		Skills: []solution.TopologySkill{
			{ID: "agent-desk", Connectors: []string{"crm"}},
		},
		Routing: map[string]solution.RoutingEntry{"web": {DefaultSkill: "agent-desk"}},
		PlatformConnectors: []solution.PlatformConnector{
			{ID: "crm"},
			{ID: "billing"},
		},
		Identity: &solution.Identity{ActorTypes: []string{"agent"}},
	}
	ctx := &DeployContext{
		Skills: []solution.Skill{
			{
				ID:         "agent-desk",
				Tools:      []solution.Tool{bridged("lookup", "crm"), bridged("charge", "payments")},
				Connectors: []string{"crm", "ticketing"},
				UICapable:  true,
				UIPlugins: []solution.UIPlugin{
					{ID: "dashboard", MCPServer: "crm"},
					{ID: "wallboard", MCPServer: "screens"},
				},
			},
			{ID: "ghost", Status: solution.StatusNotFound, Connectors: []string{"never-checked"}},
		},
		Connectors: []solution.Connector{
			{ID: "crm", Transport: solution.TransportStdio, Command: "node", Args: []string{"server.js", "--root=/data/crm"}, Tools: []string{ToolUIListScreens}},
		},
		MCPStore: map[string][]solution.SourceFile{},
	}
	return sol, ctx
}

func TestConnectors_AllRules(t *testing.T) {
	sol, ctx := deployFixture()
	res := mustValidate(t, sol, WithDeployContext(ctx))

	bridge := filterIssues(res.Errors, CheckMCPBridgeConnectorExists)
	require.Len(t, bridge, 1)
	assert.Equal(t, "charge", bridge[0].Tool)
	assert.Equal(t, "payments", bridge[0].Connector)

	code := filterIssues(res.Errors, CheckConnectorCodeAvailable)
	require.Len(t, code, 1)
	assert.Equal(t, "crm", code[0].Connector)
	assert.Contains(t, code[0].Fix, "mcp-store/crm/")

	abs := filterIssues(res.Errors, CheckConnectorNoAbsolutePaths)
	require.Len(t, abs, 1)
	assert.Contains(t, abs[0].Message, "/data")

	undeclared := filterIssues(res.Warnings, CheckConnectorDeclared)
	require.Len(t, undeclared, 1)
	assert.Equal(t, "ticketing", undeclared[0].Connector)

	unused := filterIssues(res.Warnings, CheckConnectorUnused)
	require.Len(t, unused, 1)
	assert.Equal(t, "billing", unused[0].Connector)

	ghost := filterIssues(res.Errors, CheckSkillLoadable)
	require.Len(t, ghost, 1)
	assert.Equal(t, "ghost", ghost[0].Skill)

	plugin := filterIssues(res.Errors, CheckUIPluginConnectorExists)
	require.Len(t, plugin, 1)
	assert.Equal(t, "screens", plugin[0].Connector)

	discovery := filterIssues(res.Warnings, CheckUIDiscoveryTools)
	require.Len(t, discovery, 1)
	assert.Contains(t, discovery[0].Message, ToolUIGetScreen)
	assert.NotContains(t, discovery[0].Message, ToolUIListScreens)
}

func TestConnectors_CleanPayload(t *testing.T) {
	sol, ctx := deployFixture()
	sol.PlatformConnectors = sol.PlatformConnectors[:1]
	ctx.Skills = []solution.Skill{{
		ID:         "agent-desk",
		Tools:      []solution.Tool{bridged("lookup", "crm")},
		Connectors: []string{"crm"},
		UIPlugins:  []solution.UIPlugin{{ID: "dashboard", MCPServer: "crm"}},
	}}
	ctx.Connectors[0].Args = []string{"server.js", "--root=./data"}
	ctx.Connectors[0].Tools = []string{ToolUIListScreens, ToolUIGetScreen}
	ctx.MCPStore["crm"] = []solution.SourceFile{{Path: "server.js", Content: "// server"}}

	res := mustValidate(t, sol, WithDeployContext(ctx))
	assert.True(t, res.Valid, "%v", res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestConnectors_InactiveWithoutContext(t *testing.T) {
	sol, ctx := deployFixture()

	res := mustValidate(t, sol)
	assert.False(t, res.Has(CheckConnectorUnused))

	ctx.Connectors = nil
	ctx.MCPStore = nil
	res = mustValidate(t, sol, WithDeployContext(ctx))
	assert.False(t, res.Has(CheckConnectorUnused), "skills alone do not activate connector checks")
}

func TestConnectors_HTTPNeedsNoSource(t *testing.T) {
	sol, ctx := deployFixture()
	ctx.Connectors[0].Transport = solution.TransportHTTP
	res := mustValidate(t, sol, WithDeployContext(ctx))
	assert.False(t, res.Has(CheckConnectorCodeAvailable))
}

func TestConnectors_CustomReservedRoots(t *testing.T) {
	sol, ctx := deployFixture()
	res := mustValidate(t, sol, WithDeployContext(ctx), WithReservedMountRoots("/srv"))
	assert.False(t, res.Has(CheckConnectorNoAbsolutePaths))

	ctx.Connectors[0].Args = []string{"/srv/crm/index.js"}
	res = mustValidate(t, sol, WithDeployContext(ctx), WithReservedMountRoots("/srv"))
	assert.True(t, res.Has(CheckConnectorNoAbsolutePaths))
}

func TestConnectors_UnloadableSkill(t *testing.T) {
	sol := &solution.Solution{
		ID:       "shop",
		Skills:   skills("a"),
		Routing:  map[string]solution.RoutingEntry{"web": {DefaultSkill: "a"}},
		Identity: &solution.Identity{ActorTypes: []string{"customer"}},
	}
	ctx := &DeployContext{
		Skills:     []solution.Skill{{ID: "a", Status: solution.StatusNotFound, LoadError: "boom"}},
		Connectors: []solution.Connector{{ID: "orders", Transport: solution.TransportHTTP}},
	}
	res := mustValidate(t, sol, WithDeployContext(ctx))
	assert.False(t, res.Valid)
	loadable := filterIssues(res.Errors, CheckSkillLoadable)
	require.Len(t, loadable, 1)
	assert.Equal(t, "a", loadable[0].Skill)
	assert.Contains(t, loadable[0].Message, "boom")
	assert.Equal(t, LevelCompleteness, loadable[0].Check.Level())

	// Skills alone leave the connector rules off but still report load failures.
	ctx.Connectors = nil
	res = mustValidate(t, sol, WithDeployContext(ctx))
	assert.Len(t, filterIssues(res.Errors, CheckSkillLoadable), 1)

	res = mustValidate(t, sol)
	assert.True(t, res.Valid)
}

func TestConnectors_PluginsRequireUICapable(t *testing.T) {
	sol, ctx := deployFixture()
	ctx.Skills[0].UICapable = false
	res := mustValidate(t, sol, WithDeployContext(ctx))
	assert.False(t, res.Has(CheckUIPluginConnectorExists))
	assert.False(t, res.Has(CheckUIDiscoveryTools))
	assert.True(t, res.Has(CheckMCPBridgeConnectorExists), "other rules still apply")
}

func TestReservedPrefix(t *testing.T) {
	roots := DefaultReservedMountRoots
	for _, tc := range []struct {
		arg  string
		want bool
	}{
		{"/app", true},
		{"/app/server.js", true},
		{"--config=/workspace/c.json", true},
		{"/application/x", false},
		{"./data/x", false},
		{"--port=8080", false},
	} {
		_, got := reservedPrefix(tc.arg, roots)
		assert.Equal(t, tc.want, got, tc.arg)
	}
}
