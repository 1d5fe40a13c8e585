package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ormasoftchile/meshcheck/pkg/history"
	"github.com/ormasoftchile/meshcheck/pkg/report"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

// Printer writes styled output to one writer. Colors are dropped when the
// writer is not a terminal.
type Printer struct {
	w  io.Writer
	st styles
}

// New returns a Printer for w.
func New(w io.Writer) *Printer {
	return &Printer{w: w, st: newStyles(lipgloss.NewRenderer(w))}
}

// Result prints a validation result: a one-line verdict, the entity counts
// and a table of issues.
func (p *Printer) Result(name string, res *validate.Result) {
	verdict := p.st.pass.Render(GlyphPass + " valid")
	if !res.Valid {
		verdict = p.st.fail.Render(fmt.Sprintf("%s invalid: %d error(s)", GlyphError, len(res.Errors)))
	}
	fmt.Fprintf(p.w, "%s %s\n", p.st.header.Render(name), verdict)

	s := res.Summary
	fmt.Fprintln(p.w, p.st.dim.Render(fmt.Sprintf(
		"skills %d  grants %d  handoffs %d  channels %d  connectors %d  contracts %d",
		s.Skills, s.Grants, s.Handoffs, s.Channels, s.PlatformConnectors, s.SecurityContracts)))

	p.Issues(res.Issues())
}

// Issues prints issues as a table. Nothing is printed for an empty list.
func (p *Printer) Issues(issues []validate.Issue) {
	if len(issues) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(p.w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"", "Check", "Location", "Message"})
	for _, is := range issues {
		msg := is.Message
		if is.Fix != "" {
			msg += "\nfix: " + is.Fix
		}
		tw.AppendRow(table.Row{p.glyph(is.Severity), is.Check, is.Location, msg})
	}
	tw.Render()
}

func (p *Printer) glyph(s validate.Severity) string {
	switch s.Normalize() {
	case validate.SeverityError:
		return p.st.fail.Render(GlyphError)
	case validate.SeverityWarning:
		return p.st.warn.Render(GlyphWarning)
	default:
		return p.st.info.Render(GlyphInfo)
	}
}

// Report prints a report summary banner followed by the issues of each level.
func (p *Printer) Report(r *report.Report) {
	title := r.SolutionName
	if title == "" {
		title = r.SolutionID
	}
	s := r.Summary
	status := p.statusStyle(s.Status).Render(strings.ToUpper(string(s.Status)))
	lines := []string{
		p.st.header.Render(title) + "  " + status,
		fmt.Sprintf("%s %d/100   %s %d   %s %d   %s %d",
			p.st.label.Render("score"), s.Score,
			p.st.label.Render("errors"), s.Errors,
			p.st.label.Render("warnings"), s.Warnings,
			p.st.label.Render("info"), s.Info),
		fmt.Sprintf("%s %d/%d mapped   %s %d/%d satisfied",
			p.st.label.Render("skills"), s.Skills.Mapped, s.Skills.Topology,
			p.st.label.Render("contracts"), s.Security.ContractsSatisfied, s.Security.Contracts),
	}
	fmt.Fprintln(p.w, p.st.banner.Render(strings.Join(lines, "\n")))

	levels := []struct {
		name   string
		issues []validate.Issue
	}{
		{"Level 1: technical", r.Level1Technical},
		{"Level 2: completeness", r.Level2Completeness},
		{"Level 3: intelligent", r.Level3Intelligent},
	}
	for _, l := range levels {
		if len(l.issues) == 0 {
			continue
		}
		fmt.Fprintln(p.w, p.st.header.Render(l.name))
		p.Issues(l.issues)
	}
}

func (p *Printer) statusStyle(s report.Status) lipgloss.Style {
	switch s {
	case report.StatusValid:
		return p.st.pass
	case report.StatusWarning:
		return p.st.warn
	default:
		return p.st.fail
	}
}

// History prints recorded reports, newest first.
func (p *Printer) History(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(p.w, p.st.dim.Render("no recorded reports"))
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(p.w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Generated", "Status", "Score", "Errors", "Warnings", "Info", "ID"})
	for _, e := range entries {
		tw.AppendRow(table.Row{
			e.GeneratedAt.Local().Format("2006-01-02 15:04"),
			e.Status, e.Score, e.Errors, e.Warnings, e.Info, e.ID,
		})
	}
	tw.Render()
}

// Gate prints a release-gate verdict.
func (p *Printer) Gate(expression string, pass bool) {
	if pass {
		fmt.Fprintf(p.w, "%s gate passed: %s\n", p.st.pass.Render(GlyphPass), expression)
		return
	}
	fmt.Fprintf(p.w, "%s gate failed: %s\n", p.st.fail.Render(GlyphError), expression)
}

// Markdown renders md for the terminal, wrapped at width columns (0 disables
// wrapping). It falls back to the raw input when rendering fails.
func (p *Printer) Markdown(md string, width int) {
	fmt.Fprintln(p.w, RenderMarkdown(md, width))
}

// RenderMarkdown converts markdown to styled terminal output.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
