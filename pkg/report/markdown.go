package report

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

// Markdown renders the report as a Markdown document.
func Markdown(r *Report) string {
	var b strings.Builder

	title := r.SolutionID
	if r.SolutionName != "" {
		title = r.SolutionName
	}
	fmt.Fprintf(&b, "# Validation report: %s\n\n", title)
	fmt.Fprintf(&b, "**Status:** %s  \n", r.Summary.Status)
	fmt.Fprintf(&b, "**Score:** %d/100  \n", r.Summary.Score)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("| Errors | Warnings | Info | Contracts satisfied |\n")
	b.WriteString("|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d/%d |\n\n",
		r.Summary.Errors, r.Summary.Warnings, r.Summary.Info,
		r.Summary.Security.ContractsSatisfied, r.Summary.Security.Contracts)

	if len(r.SkillMapping) > 0 {
		b.WriteString("## Skill mapping\n\n")
		b.WriteString("| Topology | Implementation | Match | Status |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, m := range r.SkillMapping {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				cell(m.TopologyID), cell(m.ImplementationID), cell(string(m.Match)), m.Status)
		}
		b.WriteString("\n")
	}

	writeLevel(&b, "Level 1: technical", r.Level1Technical)
	writeLevel(&b, "Level 2: completeness", r.Level2Completeness)
	writeLevel(&b, "Level 3: intelligent", r.Level3Intelligent)
	return b.String()
}

func writeLevel(b *strings.Builder, heading string, issues []validate.Issue) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	if len(issues) == 0 {
		b.WriteString("No issues.\n\n")
		return
	}
	for _, is := range issues {
		fmt.Fprintf(b, "- %s **%s** %s", severityMark(is.Severity), is.Check, is.Message)
		if is.Fix != "" {
			fmt.Fprintf(b, " _Fix: %s_", is.Fix)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func severityMark(s validate.Severity) string {
	switch s.Normalize() {
	case validate.SeverityError:
		return "✗"
	case validate.SeverityWarning:
		return "⚠"
	}
	return "ℹ"
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
