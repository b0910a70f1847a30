package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tapcart/internal/kiosk"
	"github.com/abhisek/tapcart/internal/router"
	"github.com/abhisek/tapcart/internal/screen"
	"github.com/abhisek/tapcart/internal/screens/home"
	"github.com/abhisek/tapcart/internal/ui/components"
	"github.com/abhisek/tapcart/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	deps    *kiosk.Deps
	toaster *Toaster
	bell    *TerminalBell
	toasts  []activeToast
	nextID  int
	width   int
	height  int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(deps *kiosk.Deps, toaster *Toaster) AppModel {
	if deps.Basket == nil {
		deps.Basket = kiosk.NewBasket(0)
	}
	return AppModel{
		router:  router.New(home.New(deps)),
		deps:    deps,
		toaster: toaster,
	}
}

func (m AppModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.toaster != nil {
		cmds = append(cmds, m.toaster.listen())
	}
	if m.bell != nil {
		cmds = append(cmds, m.bell.listen())
	}
	return tea.Batch(cmds...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case toastMsg:
		m.nextID++
		m.toasts = append(m.toasts, activeToast{id: m.nextID, toast: msg.Toast})
		if len(m.toasts) > maxToasts {
			m.toasts = m.toasts[len(m.toasts)-maxToasts:]
		}
		return m, tea.Batch(m.toaster.listen(), expireToast(m.nextID))

	case bellMsg:
		return m, tea.Batch(tea.Raw(msg.seq), m.bell.listen())

	case toastExpiredMsg:
		for i, t := range m.toasts {
			if t.id == msg.ID {
				m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
				break
			}
		}
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			m.router.Close()
			return m, tea.Quit
		case "esc":
			if c, ok := m.router.Active().(screen.InputCapturer); ok && c.CapturingInput() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render draws the whole frame for the current window size.
func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	total := ""
	if n := m.deps.Basket.Count(); n > 0 {
		total = m.deps.FormatMoney(m.deps.Basket.TotalCents())
	}
	header := layout.RenderHeader(title, m.deps.Basket.Count(), total, m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	toasts := m.renderToasts()
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if toasts != "" {
		contentHeight -= lipgloss.Height(toasts)
	}
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	if toasts != "" {
		content = toasts + "\n" + content
	}
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// renderToasts stacks the live toasts right-aligned, newest last.
func (m AppModel) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	cards := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		cards = append(cards, components.ToastView(t.toast, m.width/2))
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, strings.Join(cards, "\n"))
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled. Screens still holding devices are closed on the way out. bell
// may be nil when no beeper writes to the terminal.
func Run(ctx context.Context, deps *kiosk.Deps, toaster *Toaster, bell *TerminalBell) error {
	m := newAppModel(deps, toaster)
	m.bell = bell
	defer m.router.Close()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
