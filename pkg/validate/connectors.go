package validate

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/meshcheck/pkg/graph"
	"github.com/ormasoftchile/meshcheck/pkg/solution"
)

// UI discovery tools a UI plugin connector is expected to expose.
const (
	ToolUIListScreens = "ui.list_screens"
	ToolUIGetScreen   = "ui.get_screen"
)

// connectorIndex holds the connector sets the binding rules compare against.
type connectorIndex struct {
	payload  map[string]solution.Connector
	declared map[string]bool // platform connectors plus payload connectors
	used     map[string]bool // referenced by any skill, tool, plugin or handoff
}

// LoadableIssue reports a skill the store returned as a NOT_FOUND placeholder.
func LoadableIssue(sk *solution.Skill) Issue {
	reason := ""
	if sk.LoadError != "" {
		reason = ": " + sk.LoadError
	}
	return NewCompletenessIssue(CheckSkillLoadable, sk.ID, "skill %q could not be loaded%s", sk.ID, reason)
}

func checkLoadable(skills []solution.Skill) []Issue {
	var issues []Issue
	for i := range skills {
		if skills[i].Missing() {
			issues = append(issues, LoadableIssue(&skills[i]))
		}
	}
	return issues
}

func indexConnectors(m *graph.Model, d *DeployContext) connectorIndex {
	idx := connectorIndex{
		payload:  make(map[string]solution.Connector, len(d.Connectors)),
		declared: make(map[string]bool),
		used:     make(map[string]bool),
	}
	for _, pc := range m.PlatformConnectors {
		idx.declared[pc.ID] = true
	}
	for _, c := range d.Connectors {
		idx.payload[c.ID] = c
		idx.declared[c.ID] = true
	}

	for _, ts := range m.Skills {
		for _, c := range ts.Connectors {
			idx.used[c] = true
		}
	}
	for _, h := range m.Handoffs {
		if h.Mechanism != "" && h.Mechanism != solution.MechanismInternal {
			idx.used[h.Mechanism] = true
		}
	}
	for i := range d.Skills {
		sk := &d.Skills[i]
		if sk.Missing() {
			continue
		}
		for _, c := range sk.Connectors {
			idx.used[c] = true
		}
		for _, t := range skillTools(sk) {
			if t.Source != nil && t.Source.Type == solution.SourceMCPBridge && t.Source.ConnectionID != "" {
				idx.used[t.Source.ConnectionID] = true
			}
		}
		for _, p := range sk.UIPlugins {
			if p.MCPServer != "" {
				idx.used[p.MCPServer] = true
			}
		}
	}
	return idx
}

func skillTools(sk *solution.Skill) []solution.Tool {
	out := make([]solution.Tool, 0, len(sk.Tools)+len(sk.MetaTools))
	out = append(out, sk.Tools...)
	return append(out, sk.MetaTools...)
}

// checkConnectors runs the deploy-context binding rules.
func checkConnectors(m *graph.Model, d *DeployContext, reservedRoots []string) []Issue {
	idx := indexConnectors(m, d)
	var issues []Issue

	// C1: mcp_bridge tools reference a declared connector
	for i := range d.Skills {
		sk := &d.Skills[i]
		if sk.Missing() {
			continue
		}
		for _, t := range skillTools(sk) {
			if t.Source == nil || t.Source.Type != solution.SourceMCPBridge {
				continue
			}
			if idx.declared[t.Source.ConnectionID] {
				continue
			}
			is := newIssue(CheckMCPBridgeConnectorExists, "skills."+sk.ID+".tools",
				"tool %q of skill %q is bridged to unknown connector %q", t.Name, sk.ID, t.Source.ConnectionID)
			is.Skill, is.Tool, is.Connector = sk.ID, t.Name, t.Source.ConnectionID
			issues = append(issues, is)
		}
	}

	// C2: stdio connectors ship their server source; C3: no reserved absolute paths
	for _, c := range d.Connectors {
		if c.IsStdio() && d.MCPStore != nil && len(d.MCPStore[c.ID]) == 0 {
			is := newIssue(CheckConnectorCodeAvailable, "connectors."+c.ID,
				"stdio connector %q has no server source in the mcp-store", c.ID)
			is.Connector = c.ID
			is.Fix = fmt.Sprintf("add the server source under mcp-store/%s/ or switch the connector to an http transport", c.ID)
			issues = append(issues, is)
		}
		for _, arg := range launchArgs(c) {
			root, ok := reservedPrefix(arg, reservedRoots)
			if !ok {
				continue
			}
			is := newIssue(CheckConnectorNoAbsolutePaths, "connectors."+c.ID+".args",
				"connector %q hardcodes %q under reserved mount root %s", c.ID, arg, root)
			is.Connector = c.ID
			is.Fix = "use a path relative to the connector's working directory"
			issues = append(issues, is)
		}
	}

	// C4: referenced connectors are declared
	for _, id := range referencedConnectors(m, d) {
		if idx.declared[id] {
			continue
		}
		is := newIssue(CheckConnectorDeclared, "platform_connectors",
			"connector %q is referenced by a skill but not declared", id)
		is.Connector = id
		issues = append(issues, is)
	}

	// C5: declared platform connectors are used
	for _, pc := range m.PlatformConnectors {
		if idx.used[pc.ID] {
			continue
		}
		is := newIssue(CheckConnectorUnused, "platform_connectors",
			"platform connector %q is not used by any skill", pc.ID)
		is.Connector = pc.ID
		issues = append(issues, is)
	}

	// C6: UI plugins of UI-capable skills bind to declared connectors exposing
	// the discovery tools
	for i := range d.Skills {
		sk := &d.Skills[i]
		if sk.Missing() || !sk.UICapable {
			continue
		}
		for _, p := range sk.UIPlugins {
			if !idx.declared[p.MCPServer] {
				is := newIssue(CheckUIPluginConnectorExists, "skills."+sk.ID+".ui_plugins",
					"UI plugin %q of skill %q references undeclared connector %q", p.ID, sk.ID, p.MCPServer)
				is.Skill, is.Connector = sk.ID, p.MCPServer
				issues = append(issues, is)
				continue
			}
			c, ok := idx.payload[p.MCPServer]
			if !ok {
				continue
			}
			if missing := missingDiscoveryTools(c); len(missing) > 0 {
				is := newIssue(CheckUIDiscoveryTools, "connectors."+c.ID+".tools",
					"connector %q backing UI plugin %q does not expose %s", c.ID, p.ID, strings.Join(missing, ", "))
				is.Skill, is.Connector = sk.ID, c.ID
				issues = append(issues, is)
			}
		}
	}

	return issues
}

// referencedConnectors lists connector ids referenced by topology or
// implementation skills, first occurrence order.
func referencedConnectors(m *graph.Model, d *DeployContext) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, ts := range m.Skills {
		for _, c := range ts.Connectors {
			add(c)
		}
	}
	for i := range d.Skills {
		if d.Skills[i].Missing() {
			continue
		}
		for _, c := range d.Skills[i].Connectors {
			add(c)
		}
	}
	return out
}

func launchArgs(c solution.Connector) []string {
	out := make([]string, 0, len(c.Args)+1)
	if c.Command != "" {
		out = append(out, c.Command)
	}
	return append(out, c.Args...)
}

// reservedPrefix reports the reserved root arg falls under, also matching
// values embedded in flags such as --dir=/data/x.
func reservedPrefix(arg string, roots []string) (string, bool) {
	candidates := []string{arg}
	if i := strings.IndexByte(arg, '='); i >= 0 {
		candidates = append(candidates, arg[i+1:])
	}
	for _, v := range candidates {
		for _, root := range roots {
			root = strings.TrimRight(root, "/")
			if root == "" {
				continue
			}
			if v == root || strings.HasPrefix(v, root+"/") {
				return root, true
			}
		}
	}
	return "", false
}

func missingDiscoveryTools(c solution.Connector) []string {
	have := make(map[string]bool, len(c.Tools))
	for _, t := range c.Tools {
		have[t] = true
	}
	var missing []string
	for _, t := range []string{ToolUIListScreens, ToolUIGetScreen} {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
