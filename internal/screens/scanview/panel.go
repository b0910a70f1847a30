package scanview

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tapcart/internal/ui/components"
	"github.com/abhisek/tapcart/internal/ui/theme"
)

// Panel renders a bordered status panel with a bold title and body text.
func Panel(title, body string, accent color.Color, cw int) string {
	content := lipgloss.NewStyle().Foreground(accent).Bold(true).Render(title)
	if body != "" {
		content += "\n\n" + theme.Body.Width(components.CardInner(cw)).Align(lipgloss.Center).Render(body)
	}
	return components.StatusCard(content, cw, accent)
}

// SuccessPanel shows the decoded identifier.
func SuccessPanel(identifier string, cw int) string {
	return Panel("✓ Scan Successful", "ID: "+identifier, theme.Success, cw)
}

// Alert renders a one-line destructive alert below a panel.
func Alert(title, body string, cw int) string {
	return lipgloss.NewStyle().
		Width(cw-2).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(theme.Error).
		PaddingLeft(1).
		Render(lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render(title) + "\n" +
			theme.Body.Render(body))
}

// Charge renders the amount being charged and the vendor.
func Charge(vendor, amount string, cw int) string {
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("Paying "+vendor+"  ") +
			theme.Price.Bold(true).Render(amount))
}
