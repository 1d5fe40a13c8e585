// Package present renders validation results, reports and history for the
// terminal.
package present

import "github.com/charmbracelet/lipgloss"

// Severity glyphs convey meaning without relying on color alone.
const (
	GlyphError   = "✗"
	GlyphWarning = "⚠"
	GlyphInfo    = "ℹ"
	GlyphPass    = "✓"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

type styles struct {
	header lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
	warn   lipgloss.Style
	info   lipgloss.Style
	dim    lipgloss.Style
	banner lipgloss.Style
	label  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header: r.NewStyle().Bold(true).Foreground(colorCyan),
		pass:   r.NewStyle().Bold(true).Foreground(colorGreen),
		fail:   r.NewStyle().Bold(true).Foreground(colorRed),
		warn:   r.NewStyle().Foreground(colorYellow),
		info:   r.NewStyle().Foreground(colorBlue),
		dim:    r.NewStyle().Foreground(colorDim),
		label:  r.NewStyle().Bold(true).Foreground(colorBlue),
		banner: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1),
	}
}
