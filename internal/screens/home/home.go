package home

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tapcart/internal/kiosk"
	"github.com/abhisek/tapcart/internal/router"
	"github.com/abhisek/tapcart/internal/screen"
	"github.com/abhisek/tapcart/internal/screens/history"
	"github.com/abhisek/tapcart/internal/screens/placeholder"
	"github.com/abhisek/tapcart/internal/screens/vendor"
	"github.com/abhisek/tapcart/internal/ui/components"
	"github.com/abhisek/tapcart/internal/ui/layout"
)

// HomeScreen lists the vendors.
type HomeScreen struct {
	deps *kiosk.Deps
	menu components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps *kiosk.Deps) *HomeScreen {
	items := make([]components.MenuItem, 0, len(deps.Vendors)+2)
	for _, v := range deps.Vendors {
		items = append(items, components.MenuItem{
			Label: v.Name,
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: vendor.New(deps, v)}
				}
			},
		})
	}
	items = append(items,
		components.MenuItem{Label: "History", Action: func() tea.Cmd {
			if deps.Transactions == nil {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: placeholder.New("History", "No transaction store is configured.")}
				}
			}
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(deps)}
			}
		}},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd {
			return tea.Quit
		}},
	)

	return &HomeScreen{
		deps: deps,
		menu: components.NewMenu(items),
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	compact := layout.IsCompactHeight(height) || layout.IsCompactWidth(width)
	cw := components.ContentWidth(width)

	labels := make([]string, len(h.menu.Items))
	for i, item := range h.menu.Items {
		labels[i] = item.Label
		if i < len(h.deps.Vendors) {
			if n := h.deps.Basket.Cart(h.deps.Vendors[i]).Count(); n > 0 {
				labels[i] = fmt.Sprintf("%s (%d)", item.Label, n)
			}
		}
	}

	sections := []string{renderTitle(cw, compact)}
	if sel := h.menu.Selected; sel < len(h.deps.Vendors) && !compact {
		sections = append(sections, renderBlurb(h.deps.Vendors[sel].Description, cw))
	}
	sections = append(sections, renderMenu(labels, h.menu.Selected, cw, compact))

	return components.KioskFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Vendors"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
