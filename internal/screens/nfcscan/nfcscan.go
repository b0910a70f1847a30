package nfcscan

import (
	"context"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tapcart/internal/cart"
	"github.com/abhisek/tapcart/internal/kiosk"
	"github.com/abhisek/tapcart/internal/router"
	"github.com/abhisek/tapcart/internal/scan"
	"github.com/abhisek/tapcart/internal/screen"
	"github.com/abhisek/tapcart/internal/screens/receipt"
	"github.com/abhisek/tapcart/internal/screens/scanview"
	"github.com/abhisek/tapcart/internal/ui/components"
	"github.com/abhisek/tapcart/internal/ui/layout"
	"github.com/abhisek/tapcart/internal/ui/theme"
)

const source = "nfc"

// NFCScreen mounts a scan.NFC. Scanning starts from the action button.
type NFCScreen struct {
	deps    *kiosk.Deps
	cart    *cart.Cart
	nfc     *scan.NFC
	bridge  *scanview.Bridge
	spinner spinner.Model

	sess       scan.Session
	identifier string
}

var (
	_ screen.Screen          = (*NFCScreen)(nil)
	_ screen.Closer          = (*NFCScreen)(nil)
	_ screen.KeyHintProvider = (*NFCScreen)(nil)
)

// New creates an NFC scan screen that pays for c.
func New(deps *kiosk.Deps, c *cart.Cart) *NFCScreen {
	s := &NFCScreen{
		deps:    deps,
		cart:    c,
		bridge:  scanview.NewBridge(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Pulse), spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary))),
	}
	s.nfc = scan.NewNFC(deps.NFC, scan.Options{
		Beeper:        deps.Beeper,
		Notifier:      deps.Notifier,
		Logger:        deps.Logger(),
		OnScanSuccess: s.bridge.OnScanSuccess,
		OnChange:      s.bridge.OnChange,
	})
	return s
}

// Init reports an unsupported platform right away; otherwise the reader
// waits for the action button.
func (s *NFCScreen) Init() tea.Cmd {
	cmds := []tea.Cmd{s.bridge.Listen(), s.spinner.Tick}
	if !s.nfc.Supported() {
		cmds = append(cmds, s.start())
	}
	return tea.Batch(cmds...)
}

func (s *NFCScreen) start() tea.Cmd {
	n := s.nfc
	return func() tea.Msg {
		n.Start(context.Background())
		return nil
	}
}

func (s *NFCScreen) Title() string {
	return "Tap Student Card"
}

func (s *NFCScreen) KeyHints() []layout.KeyHint {
	var hints []layout.KeyHint
	if s.nfc.ActionEnabled() {
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: s.nfc.ActionLabel()})
	}
	if s.sess.Status == scan.StatusSuccess {
		hints = append(hints, layout.KeyHint{Key: "P", Description: "Pay now"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Cancel"})
}

// Close stops the reader. It is safe to call more than once.
func (s *NFCScreen) Close() {
	s.bridge.Close()
	s.nfc.Close()
}

func (s *NFCScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case scanview.SessionMsg:
		s.sess = msg.Session
		cmds := []tea.Cmd{s.bridge.Listen()}
		if s.sess.Status.Terminal() {
			sess, deps := s.sess, s.deps
			cmds = append(cmds, func() tea.Msg {
				deps.RecordScan(source, sess)
				return nil
			})
		}
		return s, tea.Batch(cmds...)

	case scanview.ScannedMsg:
		s.identifier = msg.Identifier
		return s, tea.Batch(s.bridge.Listen(), scanview.Proceed(s.sess.ID))

	case scanview.ProceedMsg:
		if msg.SessionID == s.sess.ID && s.sess.Status == scan.StatusSuccess && s.identifier != "" {
			return s, s.pay()
		}
		return s, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		switch msg.String() {
		case "enter":
			_, cmd := s.actionButton().Update(msg)
			return s, cmd
		case "p":
			if s.sess.Status == scan.StatusSuccess && s.identifier != "" {
				return s, s.pay()
			}
		}
	}
	return s, nil
}

// actionButton follows the component's button contract.
func (s *NFCScreen) actionButton() components.Button {
	b := components.NewButton(s.nfc.ActionLabel(), func() tea.Cmd {
		s.identifier = ""
		return s.start()
	})
	b.Disabled = !s.nfc.ActionEnabled()
	return b
}

func (s *NFCScreen) pay() tea.Cmd {
	next := receipt.New(s.deps, s.cart, s.identifier, source)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *NFCScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	vendor := s.cart.Vendor().Name
	total := s.deps.FormatMoney(s.cart.TotalCents())

	btn := s.actionButton()
	button := components.KioskButton(btn.Label, !btn.Disabled, btn.Disabled, 28)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		components.Centered(cw, scanview.Charge(vendor, total, cw), s.statusPanel(cw), button))
}

func (s *NFCScreen) statusPanel(cw int) string {
	switch s.sess.Status {
	case scan.StatusScanning:
		return scanview.Panel(s.spinner.View()+" Ready to Scan", "Hold card near the reader...", theme.Primary, cw)
	case scan.StatusSuccess:
		return scanview.SuccessPanel(s.sess.Result, cw)
	case scan.StatusUnsupported:
		return scanview.Panel("✗ NFC Not Supported", "This kiosk has no NFC reader connected.", theme.Error, cw)
	case scan.StatusError:
		return scanview.Panel("✗ Scan Failed", "Could not read the NFC tag. Please try again.", theme.Error, cw)
	default:
		return scanview.Panel("Tap to Pay", "Press Enter to start scanning.", theme.TextDim, cw)
	}
}
