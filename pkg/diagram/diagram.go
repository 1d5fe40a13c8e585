// Package diagram renders a solution's handoff graph.
// Supports Mermaid flowchart and ASCII formats.
package diagram

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/meshcheck/pkg/graph"
	"github.com/ormasoftchile/meshcheck/pkg/solution"
)

// Format represents the output diagram format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatMermaid, FormatASCII:
		return f, nil
	case "":
		return FormatMermaid, nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", s)
	}
}

// Generate produces a diagram of sol's handoff graph.
func Generate(sol *solution.Solution, format Format) (string, error) {
	if sol == nil {
		return "", fmt.Errorf("nil solution")
	}
	v := newView(graph.Build(sol))
	switch format {
	case FormatMermaid:
		return generateMermaid(v), nil
	case FormatASCII:
		return generateASCII(v, sol.Name, sol.ID), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// view is the graph annotated with the state both renderers need.
type view struct {
	m          *graph.Model
	nodes      []string
	roles      map[string]solution.SkillRole
	orphans    map[string]bool
	cycleEdges map[[2]string]bool
	edges      []solution.Handoff
}

func newView(m *graph.Model) *view {
	v := &view{
		m:          m,
		nodes:      m.Nodes(),
		roles:      make(map[string]solution.SkillRole, len(m.Skills)),
		orphans:    make(map[string]bool),
		cycleEdges: make(map[[2]string]bool),
	}
	for _, s := range m.Skills {
		if _, ok := v.roles[s.ID]; !ok {
			v.roles[s.ID] = s.Role
		}
	}
	for _, id := range m.Orphans() {
		v.orphans[id] = true
	}
	for _, c := range m.FindCycles() {
		for i := 0; i+1 < len(c); i++ {
			v.cycleEdges[[2]string{c[i], c[i+1]}] = true
		}
	}
	for _, h := range m.Handoffs {
		if h.From != "" && h.To != "" {
			v.edges = append(v.edges, h)
		}
	}
	return v
}

func (v *view) inCycle(h solution.Handoff) bool {
	return v.cycleEdges[[2]string{h.From, h.To}]
}

func external(h solution.Handoff) bool {
	return h.Mechanism != "" && h.Mechanism != solution.MechanismInternal
}

func edgeLabel(h solution.Handoff) string {
	label := strings.Join(h.GrantsPassed, ", ")
	if external(h) {
		if label != "" {
			label += " "
		}
		label += "via " + h.Mechanism
	}
	return label
}

// --- Mermaid flowchart ---

func generateMermaid(v *view) string {
	var b strings.Builder
	b.WriteString("flowchart LR\n")

	link := 0
	for _, ch := range v.m.Channels {
		target := v.m.RoutingByChannel[ch].DefaultSkill
		if target == "" {
			continue
		}
		fmt.Fprintf(&b, "    %s([%q]) -.-> %s\n", safeID("ch_"+ch), ch, safeID(target))
		link++
	}

	for _, id := range v.nodes {
		b.WriteString("    " + nodeDefinition(id, v.roles[id], v.m.HasSkill(id)) + "\n")
	}

	var cycleLinks []string
	for _, h := range v.edges {
		arrow := "-->"
		if external(h) {
			arrow = "-.->"
		}
		if label := edgeLabel(h); label != "" {
			fmt.Fprintf(&b, "    %s %s|%q| %s\n", safeID(h.From), arrow, escMermaid(label), safeID(h.To))
		} else {
			fmt.Fprintf(&b, "    %s %s %s\n", safeID(h.From), arrow, safeID(h.To))
		}
		if v.inCycle(h) {
			cycleLinks = append(cycleLinks, fmt.Sprint(link))
		}
		link++
	}

	for _, id := range v.nodes {
		switch {
		case !v.m.HasSkill(id):
			fmt.Fprintf(&b, "    style %s fill:#fff,stroke:#d00,stroke-dasharray:4\n", safeID(id))
		case v.orphans[id]:
			fmt.Fprintf(&b, "    style %s fill:#ddd,stroke:#888,color:#555\n", safeID(id))
		}
	}
	if len(cycleLinks) > 0 {
		fmt.Fprintf(&b, "    linkStyle %s stroke:#d00,stroke-width:2px\n", strings.Join(cycleLinks, ","))
	}
	return b.String()
}

func nodeDefinition(id string, role solution.SkillRole, declared bool) string {
	sid := safeID(id)
	label := escMermaid(id)
	if !declared {
		return fmt.Sprintf(`%s["%s (undeclared)"]`, sid, label)
	}
	if role != "" {
		label += "<br/>" + string(role)
	}
	switch role {
	case solution.RoleGateway:
		return fmt.Sprintf(`%s(["%s"])`, sid, label)
	case solution.RoleOrchestrator:
		return fmt.Sprintf(`%s{{"%s"}}`, sid, label)
	case solution.RoleApproval:
		return fmt.Sprintf(`%s[["%s"]]`, sid, label)
	default:
		return fmt.Sprintf(`%s["%s"]`, sid, label)
	}
}

// --- ASCII ---

func generateASCII(v *view, name, id string) string {
	var b strings.Builder
	if name == "" {
		name = id
	}
	if name == "" {
		name = "Solution"
	}
	if len(v.nodes) == 0 {
		b.WriteString(name + " (empty)\n")
		return b.String()
	}

	boxWidth := computeBoxWidth(v, name)
	b.WriteString("╔" + strings.Repeat("═", boxWidth) + "╗\n")
	b.WriteString("║" + centerPad(name, boxWidth) + "║\n")
	b.WriteString("╚" + strings.Repeat("═", boxWidth) + "╝\n")

	if len(v.m.Channels) > 0 {
		chWidth := 0
		for _, ch := range v.m.Channels {
			if w := runewidth.StringWidth(ch); w > chWidth {
				chWidth = w
			}
		}
		b.WriteString("Entry points\n")
		for _, ch := range v.m.Channels {
			target := v.m.RoutingByChannel[ch].DefaultSkill
			b.WriteString("  " + padRight(ch, chWidth) + " ─▶ " + target + "\n")
		}
	}

	out := make(map[string][]solution.Handoff)
	for _, h := range v.edges {
		out[h.From] = append(out[h.From], h)
	}
	for _, id := range v.nodes {
		b.WriteString("\n")
		writeASCIINode(&b, id, v.nodeNote(id), boxWidth)
		edges := out[id]
		for i, h := range edges {
			branch := "├─▶ "
			if i == len(edges)-1 {
				branch = "└─▶ "
			}
			line := "  " + branch + h.To
			if label := edgeLabel(h); label != "" {
				line += "  [" + label + "]"
			}
			if v.inCycle(h) {
				line += "  ⟲ cycle"
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func (v *view) nodeNote(id string) string {
	var parts []string
	if !v.m.HasSkill(id) {
		return "undeclared"
	}
	if r := v.roles[id]; r != "" {
		parts = append(parts, string(r))
	}
	if v.orphans[id] {
		parts = append(parts, "unreachable")
	}
	return strings.Join(parts, ", ")
}

func computeBoxWidth(v *view, name string) int {
	w := 24
	if nw := runewidth.StringWidth(name) + 4; nw > w {
		w = nw
	}
	for _, id := range v.nodes {
		if cw := runewidth.StringWidth(nodeLine(id)); cw > w {
			w = cw
		}
		if note := v.nodeNote(id); note != "" {
			if cw := runewidth.StringWidth(noteLine(note)); cw > w {
				w = cw
			}
		}
	}
	return w
}

func nodeLine(id string) string   { return " ◆ " + id + " " }
func noteLine(note string) string { return "   " + note + " " }

func writeASCIINode(b *strings.Builder, id, note string, boxWidth int) {
	b.WriteString("┌" + strings.Repeat("─", boxWidth) + "┐\n")
	b.WriteString("│" + padRight(nodeLine(id), boxWidth) + "│\n")
	if note != "" {
		b.WriteString("│" + padRight(noteLine(note), boxWidth) + "│\n")
	}
	b.WriteString("└" + strings.Repeat("─", boxWidth) + "┘\n")
}

// --- string helpers ---

// centerPad centers s within width using spaces, based on display width.
func centerPad(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	total := width - sw
	left := total / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", total-left)
}

func padRight(s string, width int) string {
	if sw := runewidth.StringWidth(s); sw < width {
		return s + strings.Repeat(" ", width-sw)
	}
	return s
}

func safeID(id string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_", ":", "_")
	return r.Replace(id)
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	return s
}
