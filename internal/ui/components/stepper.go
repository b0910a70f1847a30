package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tapcart/internal/ui/theme"
)

// Stepper is a quantity selector bounded to [0, Max]. "-" is disabled at 0
// and "+" at Max. Typed digits replace the value and are clamped.
type Stepper struct {
	Value  int
	Max    int
	typing bool
}

// NewStepper creates a stepper starting at value.
func NewStepper(value, limit int) Stepper {
	s := Stepper{Max: limit}
	s.Value = s.clamp(value)
	return s
}

// Update handles stepper keys and reports whether the value changed.
func (s Stepper) Update(msg tea.Msg) (Stepper, bool) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, false
	}
	prev := s.Value
	key := kmsg.String()
	switch {
	case key == "+" || key == "=" || key == "right":
		s.typing = false
		s.Value = s.clamp(s.Value + 1)
	case key == "-" || key == "left":
		s.typing = false
		s.Value = s.clamp(s.Value - 1)
	case key == "backspace":
		s.Value /= 10
		s.typing = s.Value > 0
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		d := int(key[0] - '0')
		if s.typing {
			s.Value = s.clamp(s.Value*10 + d)
		} else {
			s.Value = s.clamp(d)
		}
		s.typing = true
	default:
		s.typing = false
	}
	return s, s.Value != prev
}

// CanDecrement reports whether "-" is enabled.
func (s Stepper) CanDecrement() bool { return s.Value > 0 }

// CanIncrement reports whether "+" is enabled.
func (s Stepper) CanIncrement() bool { return s.Value < s.Max }

// View renders "[-]  n  [+]" with disabled sides dimmed.
func (s Stepper) View() string {
	on := theme.Selected
	off := lipgloss.NewStyle().Foreground(theme.Border)

	minus, plus := off.Render("[-]"), off.Render("[+]")
	if s.CanDecrement() {
		minus = on.Render("[-]")
	}
	if s.CanIncrement() {
		plus = on.Render("[+]")
	}
	value := theme.Body.Bold(true).Width(5).Align(lipgloss.Center).
		Render(fmt.Sprint(s.Value))
	return minus + value + plus
}

func (s Stepper) clamp(v int) int {
	return min(max(v, 0), max(s.Max, 0))
}
