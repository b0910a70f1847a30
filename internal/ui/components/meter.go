package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tapcart/internal/ui/theme"
)

// Meter displays a horizontal bar for value out of max.
type Meter struct {
	Label string
	Value int
	Max   int
	Width int
}

// NewMeter creates a new meter.
func NewMeter(label string, value, limit, width int) Meter {
	return Meter{Label: label, Value: value, Max: limit, Width: width}
}

// View renders the meter followed by "value/max".
func (m Meter) View() string {
	var result string

	if m.Label != "" {
		result += theme.Body.Render(m.Label) + "  "
	}

	count := fmt.Sprintf("  %d/%d", m.Value, m.Max)
	barWidth := m.Width - lipgloss.Width(result) - len(count)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := 0
	if m.Max > 0 {
		filled = barWidth * m.Value / m.Max
	}
	filled = min(max(filled, 0), barWidth)

	result += lipgloss.NewStyle().
		Background(theme.Secondary).
		Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().
		Background(theme.Border).
		Render(strings.Repeat(" ", barWidth-filled))

	return result + lipgloss.NewStyle().Foreground(theme.TextDim).Render(count)
}
