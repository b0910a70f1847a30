package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tapcart/internal/scan"
	"github.com/abhisek/tapcart/internal/ui/theme"
)

// ToastView renders a notification card at most width columns wide.
func ToastView(t scan.Toast, width int) string {
	style := theme.ToastDefault
	titleColor := theme.Success
	if t.Variant == scan.VariantDestructive {
		style = theme.ToastDestructive
		titleColor = theme.Error
	}
	body := lipgloss.NewStyle().Foreground(titleColor).Bold(true).Render(t.Title)
	if t.Description != "" {
		body += "\n" + theme.Body.Render(t.Description)
	}
	w := min(width, 44)
	return style.Width(w).Render(body)
}
