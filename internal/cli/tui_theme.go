package cli

import "github.com/charmbracelet/lipgloss"

type tuiTheme struct {
	title   lipgloss.Style
	label   lipgloss.Style
	text    lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	info    lipgloss.Style
	help    lipgloss.Style
	panel   lipgloss.Style
	spinner lipgloss.Style
}

func newTUITheme() tuiTheme {
	return tuiTheme{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#9FD3FF")),
		label: lipgloss.NewStyle().
			Bold(true).
			Width(9).
			Foreground(lipgloss.Color("#C0C8D4")),
		text: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D7DBE0")),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E7B88")),
		ok: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#63C17A")),
		warn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E7B65A")),
		info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#65B5FF")),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8FA0B3")),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#3D4752")).
			Padding(0, 1),
		spinner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#65B5FF")),
	}
}
