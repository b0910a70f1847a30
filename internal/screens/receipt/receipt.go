package receipt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tapcart/internal/cart"
	"github.com/abhisek/tapcart/internal/checkout"
	"github.com/abhisek/tapcart/internal/kiosk"
	"github.com/abhisek/tapcart/internal/router"
	"github.com/abhisek/tapcart/internal/screen"
	"github.com/abhisek/tapcart/internal/store"
	"github.com/abhisek/tapcart/internal/ui/components"
	"github.com/abhisek/tapcart/internal/ui/layout"
	"github.com/abhisek/tapcart/internal/ui/theme"
)

type checkoutDoneMsg struct {
	Tx  *store.Transaction
	Err error
}

// ReceiptScreen charges the student and shows the outcome.
type ReceiptScreen struct {
	deps       *kiosk.Deps
	cart       *cart.Cart
	identifier string
	source     string

	spinner spinner.Model
	done    bool
	tx      *store.Transaction
	err     error
}

var _ screen.Screen = (*ReceiptScreen)(nil)
var _ screen.KeyHintProvider = (*ReceiptScreen)(nil)

// New creates a receipt screen for the cart and the scanned identifier.
// source names the input that produced the identifier.
func New(deps *kiosk.Deps, c *cart.Cart, identifier, source string) *ReceiptScreen {
	return &ReceiptScreen{
		deps:       deps,
		cart:       c,
		identifier: strings.TrimSpace(identifier),
		source:     source,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary))),
	}
}

// Init starts the checkout on a copy of the cart so the UI keeps reading the
// original while the charge is in flight.
func (s *ReceiptScreen) Init() tea.Cmd {
	svc := s.deps.Checkout
	id := s.identifier
	snapshot := s.cart.Clone()
	log := s.deps.Logger().WithField("source", s.source)
	return tea.Batch(s.spinner.Tick, func() tea.Msg {
		if svc == nil {
			return checkoutDoneMsg{Err: errors.New("checkout is not configured")}
		}
		tx, err := svc.Checkout(context.Background(), id, snapshot)
		if err != nil {
			log.WithError(err).Warn("checkout failed")
		}
		return checkoutDoneMsg{Tx: tx, Err: err}
	})
}

func (s *ReceiptScreen) Title() string {
	return "Checkout"
}

func (s *ReceiptScreen) KeyHints() []layout.KeyHint {
	if !s.done {
		return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	}
	if s.err != nil {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back to cart"},
			{Key: "Enter", Description: "Home"},
		}
	}
	return []layout.KeyHint{{Key: "Enter", Description: "Done"}}
}

func (s *ReceiptScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case checkoutDoneMsg:
		s.done = true
		s.tx, s.err = msg.Tx, msg.Err
		if s.err == nil {
			s.deps.Basket.Clear(s.cart.Vendor().ID)
		}
		return s, nil

	case spinner.TickMsg:
		if s.done {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		if !s.done {
			return s, nil
		}
		switch msg.String() {
		case "enter":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *ReceiptScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var body string
	switch {
	case !s.done:
		body = s.spinner.View() + " Charging " + s.deps.FormatMoney(s.cart.TotalCents()) + " to " + s.identifier + "..."
	case s.err != nil:
		body = components.StatusCard(
			theme.Negative.Render("Payment Failed")+"\n\n"+
				theme.Body.Render(Describe(s.err, s.identifier)),
			cw, theme.Error)
	default:
		body = s.receiptCard(cw)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

func (s *ReceiptScreen) receiptCard(cw int) string {
	tx := s.tx
	var b strings.Builder
	b.WriteString(theme.Positive.Render("✓ Payment Complete"))
	b.WriteString("\n\n")
	b.WriteString(theme.Muted.Render(fmt.Sprintf("%s · %s", tx.VendorName, tx.Date.Local().Format("Jan 02 15:04"))))
	b.WriteString("\n\n")
	lineWidth := cw - 10
	for _, it := range tx.Items {
		left := fmt.Sprintf("%d × %s", it.Quantity, it.Name)
		right := s.deps.FormatMoney(it.PriceCents * int64(it.Quantity))
		b.WriteString(spread(left, right, lineWidth))
		b.WriteString("\n")
	}
	b.WriteString(theme.Muted.Render(strings.Repeat("─", max(lineWidth, 0))))
	b.WriteString("\n")
	b.WriteString(spread("Total", theme.Price.Bold(true).Render(s.deps.FormatMoney(tx.TotalCents)), lineWidth))
	b.WriteString("\n\n")
	b.WriteString(theme.Muted.Render("Student " + tx.StudentID + " · Ref " + shortRef(tx.ID)))
	return components.StatusCard(b.String(), cw, theme.Success)
}

// Describe turns a checkout error into a message for the customer.
func Describe(err error, identifier string) string {
	switch {
	case errors.Is(err, checkout.ErrUnknownStudent):
		return fmt.Sprintf("No student account matches ID %q.", identifier)
	case errors.Is(err, checkout.ErrInsufficientFunds):
		return "Your balance is too low for this purchase."
	case errors.Is(err, checkout.ErrOutOfStock):
		return "Some items sold out while you were shopping. Please adjust your cart."
	case errors.Is(err, checkout.ErrEmptyCart):
		return "Your cart is empty."
	default:
		return "Something went wrong: " + err.Error()
	}
}

func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func shortRef(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
