package home

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tapcart/internal/ui/theme"
)

const bannerFull = ` ╔╦╗╔═╗╔═╗╔═╗╔═╗╦═╗╔╦╗
  ║ ╠═╣╠═╝║  ╠═╣╠╦╝ ║
  ╩ ╩ ╩╩  ╚═╝╩ ╩╩╚═ ╩ `

const bannerCompact = "T · A · P · C · A · R · T"

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 30

// renderTitle returns the styled title block or compact fallback.
func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Highlight).
		Bold(true)

	text := bannerFull
	if compact {
		text = bannerCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(text) + "\n" +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render("campus storefront · tap your card or scan your ID"))
}

// renderMenu renders each menu item as a fixed-width button, or as plain
// lines when compact.
func renderMenu(labels []string, selected int, cw int, compact bool) string {
	var rows []string
	for i, label := range labels {
		if compact {
			style := theme.Body
			prefix := "   "
			if i == selected {
				style = lipgloss.NewStyle().Foreground(theme.BgDark).Background(theme.Highlight).Bold(true)
				prefix = " ▸ "
			}
			rows = append(rows, style.Render(prefix+label+" "))
			continue
		}
		rows = append(rows, renderButton(label, i == selected))
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(rows, "\n"))
}

func renderButton(label string, selected bool) string {
	style := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if selected {
		return style.
			Bold(true).
			Foreground(theme.BgDark).
			Background(theme.Highlight).
			BorderForeground(theme.Highlight).
			Render("▸ " + label)
	}
	return style.
		Foreground(theme.Text).
		BorderForeground(theme.Border).
		Render(label)
}

// renderBlurb renders the selected vendor's description.
func renderBlurb(text string, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Italic(true).
		Render(text)
}
