package components

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tapcart/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for all kiosk sections.
// All boxes are rendered at this width so they visually align.
func ContentWidth(frameWidth int) int {
	// Leave room for frame border (2) + inner padding (4)
	w := frameWidth - 6
	if w > 64 {
		w = 64
	}
	if w < 20 {
		w = 20
	}
	return w
}

// KioskFrame wraps content in a double-border frame, centering vertically
// and horizontally within the given dimensions.
func KioskFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width - 2).
		Height(height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// CardInner is the text width available inside a Card or StatusCard of
// content width cw: the rounded border takes 2 columns and the padding 4.
func CardInner(cw int) int {
	return cw - 8
}

// Card wraps content in a rounded-border card at the given content width.
func Card(content string, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(1, 2).
		Render(content)
}

// StatusCard is a Card with a colored border for scan outcomes.
func StatusCard(content string, cw int, border color.Color) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(1, 2).
		Render(content)
}

// KioskButton renders a fixed-width bordered button.
func KioskButton(label string, selected, disabled bool, width int) string {
	base := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	switch {
	case disabled:
		return base.
			Foreground(theme.TextDim).
			BorderForeground(theme.Border).
			Render(label)
	case selected:
		return base.
			Bold(true).
			Foreground(theme.BgDark).
			Background(theme.Highlight).
			BorderForeground(theme.Highlight).
			Render("▸ " + label)
	default:
		return base.
			Foreground(theme.Text).
			BorderForeground(theme.Border).
			Render(label)
	}
}

// Centered stacks sections vertically, each centered in cw columns.
func Centered(cw int, sections ...string) string {
	style := lipgloss.NewStyle().Width(cw).Align(lipgloss.Center)
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		if s == "" {
			continue
		}
		out = append(out, style.Render(s))
	}
	return strings.Join(out, "\n\n")
}
