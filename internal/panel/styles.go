package panel

import (
	"sync"

	"charm.land/lipgloss/v2"
)

// Styles holds the computed lipgloss styles for the panel.
type Styles struct {
	Title       lipgloss.Style
	CustomMark  lipgloss.Style
	TopicHeader lipgloss.Style
	TopicActive lipgloss.Style
	Bookmark    lipgloss.Style
	Missing     lipgloss.Style
	UserRow     lipgloss.Style
	AssistRow   lipgloss.Style
	Marker      lipgloss.Style
	Selected    lipgloss.Style
	Help        lipgloss.Style
	StatusBar   lipgloss.Style
	PaneBorder  lipgloss.Style
	FocusBorder lipgloss.Style
	Empty       lipgloss.Style
}

var (
	stylesOnce sync.Once
	styles     Styles
)

// GetStyles returns the panel styles, built on first use.
func GetStyles() *Styles {
	stylesOnce.Do(func() {
		styles = buildStyles()
	})
	return &styles
}

func buildStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")),

		CustomMark: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),

		TopicHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),

		TopicActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("25")).
			Padding(0, 1),

		Bookmark: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		Missing: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true),

		UserRow: lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")),

		AssistRow: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		Marker: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("237")),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),

		StatusBar: lipgloss.NewStyle().
			Background(lipgloss.Color("25")).
			Foreground(lipgloss.Color("15")).
			Bold(true).
			Padding(0, 1),

		PaneBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),

		FocusBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")),

		Empty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true),
	}
}
