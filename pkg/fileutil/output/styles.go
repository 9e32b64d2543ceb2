package output

import "github.com/charmbracelet/lipgloss"

// Palette entries, ANSI 256-color codes.
const (
	accent = lipgloss.Color("39")
	dim    = lipgloss.Color("245")
	bright = lipgloss.Color("255")
	amber  = lipgloss.Color("214")
)

// theme groups the styles used by the pretty formatter.
type theme struct {
	summary lipgloss.Style
	totals  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	note    lipgloss.Style
	warn    lipgloss.Style
	size    lipgloss.Style
	column  lipgloss.Style
}

func newTheme() theme {
	box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return theme{
		summary: box.BorderForeground(accent).MarginBottom(1),
		totals:  box.BorderForeground(dim).MarginTop(1),
		label:   lipgloss.NewStyle().Foreground(dim),
		value:   lipgloss.NewStyle().Foreground(bright),
		note:    lipgloss.NewStyle().Foreground(dim),
		warn:    lipgloss.NewStyle().Foreground(amber),
		size:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		column:  lipgloss.NewStyle().Foreground(dim).Bold(true),
	}
}

// field renders "label: value".
func (t theme) field(label, value string) string {
	return t.label.Render(label+":") + " " + t.value.Render(value)
}
