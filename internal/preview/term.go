package preview

// term.go — Terminal output of a View.

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"qdesigner/internal/layout"
)

// Styles used by terminal surfaces, drawn from the shared palette.
var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(hex(layout.ColorPrimary))
	HeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(hex(layout.ColorSecondary))
	MutedStyle   = lipgloss.NewStyle().Foreground(hex(layout.ColorMuted))
	StatStyle    = lipgloss.NewStyle().
			Bold(true).
			Foreground(hex(layout.ColorPrimary)).
			Background(hex(layout.ColorLightBG)).
			Padding(0, 2)
	WarnStyle     = lipgloss.NewStyle().Foreground(hex(layout.ColorSkip))
	SelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(hex(layout.ColorAccent))
)

func hex(c string) lipgloss.Color { return lipgloss.Color("#" + c) }

// StatsStrip renders the stats as three boxes side by side.
func StatsStrip(s Stats) string {
	boxes := []string{
		StatStyle.Render(fmt.Sprintf("%s\nQuestions", s.TotalQuestions)),
		StatStyle.Render(fmt.Sprintf("%s\nEstimated LOI", s.LOI)),
		StatStyle.Render(fmt.Sprintf("%d\nSections", s.Sections)),
	}
	strip := lipgloss.JoinHorizontal(lipgloss.Top, boxes[0], " ", boxes[1], " ", boxes[2])
	if s.CountMismatch() {
		strip += "\n" + WarnStyle.Render(fmt.Sprintf("declared %s questions, found %d", s.TotalQuestions, s.ActualQuestions))
	}
	return strip
}

// Terminal renders v as styled terminal text. style is a glamour standard
// style name ("dark", "light", "notty"); width is the wrap column.
func Terminal(v View, style string, width int) (string, error) {
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("preview renderer: %w", err)
	}
	out, err := r.Render(Markdown(v))
	if err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return out, nil
}
