package camerascan

import (
	"context"
	"time"

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

const (
	source = "camera"

	previewCols  = 48
	previewRows  = 14
	previewFrame = 150 * time.Millisecond
)

type previewTickMsg struct{}

// CameraScreen mounts a scan.Camera and starts scanning immediately. The
// camera is released when the screen leaves the stack.
type CameraScreen struct {
	deps    *kiosk.Deps
	cart    *cart.Cart
	camera  *scan.Camera
	bridge  *scanview.Bridge
	preview *preview
	spinner spinner.Model

	sess       scan.Session
	identifier string
	closed     bool
}

var (
	_ screen.Screen          = (*CameraScreen)(nil)
	_ screen.Closer          = (*CameraScreen)(nil)
	_ screen.KeyHintProvider = (*CameraScreen)(nil)
)

// New creates a camera scan screen that pays for c.
func New(deps *kiosk.Deps, c *cart.Cart) *CameraScreen {
	s := &CameraScreen{
		deps:    deps,
		cart:    c,
		bridge:  scanview.NewBridge(),
		preview: newPreview(previewCols, previewRows),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary))),
	}
	s.camera = scan.NewCamera(deps.Camera, scan.Options{
		Beeper:        deps.Beeper,
		Notifier:      deps.Notifier,
		Logger:        deps.Logger(),
		OnScanSuccess: s.bridge.OnScanSuccess,
		OnChange:      s.bridge.OnChange,
		Sink:          s.preview,
		Prequalify:    deps.Prequalify,
	})
	return s
}

func (s *CameraScreen) Init() tea.Cmd {
	return tea.Batch(s.bridge.Listen(), s.spinner.Tick, s.start(false), tickPreview())
}

func (s *CameraScreen) Title() string {
	return "Scan Student ID"
}

func (s *CameraScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{}
	if s.sess.Status == scan.StatusSuccess {
		hints = append(hints,
			layout.KeyHint{Key: "Enter", Description: "Pay now"},
			layout.KeyHint{Key: "R", Description: "Scan Again"},
		)
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Cancel"})
}

// Close releases the camera. It is safe to call more than once.
func (s *CameraScreen) Close() {
	s.closed = true
	s.bridge.Close()
	s.camera.Close()
}

// start runs Start (or Restart) off the UI loop; enumeration blocks.
func (s *CameraScreen) start(restart bool) tea.Cmd {
	cam := s.camera
	return func() tea.Msg {
		if restart {
			cam.Restart(context.Background())
		} else {
			cam.Start(context.Background())
		}
		return nil
	}
}

func (s *CameraScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
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

	case previewTickMsg:
		if s.closed {
			return s, nil
		}
		return s, tickPreview()

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		if s.sess.Status != scan.StatusSuccess {
			return s, nil
		}
		switch msg.String() {
		case "enter":
			return s, s.pay()
		case "r":
			s.identifier = ""
			s.preview.reset()
			return s, s.start(true)
		}
	}
	return s, nil
}

func (s *CameraScreen) pay() tea.Cmd {
	next := receipt.New(s.deps, s.cart, s.identifier, source)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *CameraScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	vendor := s.cart.Vendor().Name
	total := s.deps.FormatMoney(s.cart.TotalCents())

	sections := []string{scanview.Charge(vendor, total, cw), s.statusPanel(cw)}

	switch {
	case s.sess.Denied():
		sections = append(sections, scanview.Alert("Camera Access Required", "Please allow camera access to use this feature.", cw))
	case s.sess.Status == scan.StatusSuccess:
		sections = append(sections, components.KioskButton("Scan Again", false, false, 24))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, components.Centered(cw, sections...))
}

func (s *CameraScreen) statusPanel(cw int) string {
	switch {
	case s.sess.Denied():
		return scanview.Panel("Camera Access Denied",
			"Please enable camera permissions in your device settings and reopen this screen.", theme.Error, cw)
	case s.sess.Status == scan.StatusSuccess:
		return scanview.SuccessPanel(s.sess.Result, cw)
	case s.sess.Status == scan.StatusScanning:
		art, ok := s.preview.view()
		if !ok {
			return scanview.Panel(s.spinner.View()+" Waiting for video", "", theme.Primary, cw)
		}
		return components.StatusCard(
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(art)+"\n\n"+
				theme.Body.Render("Hold the barcode or QR code on your student ID up to the camera."),
			cw, theme.Primary)
	default:
		return scanview.Panel(s.spinner.View()+" Initializing camera...", "", theme.TextDim, cw)
	}
}

func tickPreview() tea.Cmd {
	return tea.Tick(previewFrame, func(time.Time) tea.Msg { return previewTickMsg{} })
}
