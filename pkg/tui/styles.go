package tui

import "github.com/charmbracelet/lipgloss"

// ColorScheme — цвета интерфейса чата.
type ColorScheme struct {
	StatusForeground string
	StatusBackground string
	User             string
	Assistant        string
	Tool             string
	System           string
	Error            string
}

// DefaultColorScheme — тёмная схема по умолчанию.
func DefaultColorScheme() ColorScheme {
	return ColorScheme{
		StatusForeground: "230",
		StatusBackground: "62",
		User:             "39",
		Assistant:        "42",
		Tool:             "214",
		System:           "241",
		Error:            "196",
	}
}

// styles — скомпилированные lipgloss стили для схемы.
type styles struct {
	status    lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	tool      lipgloss.Style
	system    lipgloss.Style
	errorMsg  lipgloss.Style
}

func newStyles(c ColorScheme) styles {
	return styles{
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.StatusForeground)).
			Background(lipgloss.Color(c.StatusBackground)).
			Padding(0, 1),
		user:      lipgloss.NewStyle().Foreground(lipgloss.Color(c.User)).Bold(true),
		assistant: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Assistant)),
		tool:      lipgloss.NewStyle().Foreground(lipgloss.Color(c.Tool)),
		system:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.System)).Italic(true),
		errorMsg:  lipgloss.NewStyle().Foreground(lipgloss.Color(c.Error)).Bold(true),
	}
}
