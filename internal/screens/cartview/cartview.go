package cartview

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tapcart/internal/cart"
	"github.com/abhisek/tapcart/internal/kiosk"
	"github.com/abhisek/tapcart/internal/router"
	"github.com/abhisek/tapcart/internal/scan"
	"github.com/abhisek/tapcart/internal/screen"
	"github.com/abhisek/tapcart/internal/screens/camerascan"
	"github.com/abhisek/tapcart/internal/screens/nfcscan"
	"github.com/abhisek/tapcart/internal/screens/placeholder"
	"github.com/abhisek/tapcart/internal/screens/receipt"
	"github.com/abhisek/tapcart/internal/ui/components"
	"github.com/abhisek/tapcart/internal/ui/layout"
	"github.com/abhisek/tapcart/internal/ui/theme"
)

const manualSource = "manual"

// CartScreen shows the cart and the ways to pay for it.
type CartScreen struct {
	deps  *kiosk.Deps
	cart  *cart.Cart
	menu  components.Menu
	input components.TextInput
	entry bool
}

var (
	_ screen.Screen          = (*CartScreen)(nil)
	_ screen.KeyHintProvider = (*CartScreen)(nil)
	_ screen.InputCapturer   = (*CartScreen)(nil)
)

// New creates a CartScreen for c.
func New(deps *kiosk.Deps, c *cart.Cart) *CartScreen {
	s := &CartScreen{deps: deps, cart: c}
	s.menu = components.NewMenu([]components.MenuItem{
		{Label: "Pay with Camera", Action: s.push(func() screen.Screen {
			if deps.Camera == nil {
				return placeholder.New("Scan Student ID", "No camera is configured on this kiosk.")
			}
			return camerascan.New(deps, c)
		})},
		{Label: "Pay with NFC Card", Action: s.push(func() screen.Screen {
			return nfcscan.New(deps, c)
		})},
		{Label: "Enter Student ID", Action: func() tea.Cmd {
			s.entry = true
			s.input = components.NewTextInput("Student ID", 32)
			return s.input.Init()
		}},
		{Label: "Clear Cart", Action: func() tea.Cmd {
			c.Clear()
			return func() tea.Msg { return router.PopScreenMsg{} }
		}},
	})
	return s
}

func (s *CartScreen) push(build func() screen.Screen) func() tea.Cmd {
	return func() tea.Cmd {
		if s.cart.Empty() {
			return nil
		}
		next := build()
		return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
	}
}

func (s *CartScreen) Init() tea.Cmd {
	return nil
}

func (s *CartScreen) Title() string {
	return "Cart · " + s.cart.Vendor().Name
}

// CapturingInput reports whether the student ID field has focus.
func (s *CartScreen) CapturingInput() bool {
	return s.entry
}

func (s *CartScreen) KeyHints() []layout.KeyHint {
	if s.entry {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Pay"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *CartScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if !s.entry {
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}

	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "esc":
			s.entry = false
			return s, nil
		case "enter":
			id := s.input.Value()
			if id == "" || s.cart.Empty() {
				s.input.Submit(false)
				return s, nil
			}
			s.entry = false
			deps := s.deps
			next := receipt.New(deps, s.cart, id, manualSource)
			return s, tea.Batch(
				func() tea.Msg {
					deps.RecordScan(manualSource, scan.Session{Status: scan.StatusSuccess, Result: id})
					return nil
				},
				func() tea.Msg { return router.PushScreenMsg{Screen: next} },
			)
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *CartScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	if s.cart.Empty() {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Italic(true).Render("Your cart is empty."))
	}

	var lines strings.Builder
	for _, it := range s.cart.Items() {
		left := fmt.Sprintf("%d × %s", it.Quantity, it.Product.Name)
		right := s.deps.FormatMoney(it.SubtotalCents())
		gap := components.CardInner(cw) - lipgloss.Width(left) - lipgloss.Width(right)
		lines.WriteString(theme.Body.Render(left) +
			strings.Repeat(" ", max(gap, 1)) + theme.Price.Render(right) + "\n")
	}
	totalLine := "Total  " + theme.Price.Bold(true).Render(s.deps.FormatMoney(s.cart.TotalCents()))
	lines.WriteString("\n" + lipgloss.PlaceHorizontal(components.CardInner(cw), lipgloss.Right, totalLine))

	var action string
	if s.entry {
		action = theme.Body.Bold(true).Render("Student ID") + "\n" + s.input.View()
	} else {
		action = s.menu.View(cw)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		components.Centered(cw, components.Card(lines.String(), cw), action))
}
