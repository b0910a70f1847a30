package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tapcart/internal/kiosk"
	"github.com/abhisek/tapcart/internal/router"
	"github.com/abhisek/tapcart/internal/screen"
	"github.com/abhisek/tapcart/internal/store"
	"github.com/abhisek/tapcart/internal/ui/layout"
	"github.com/abhisek/tapcart/internal/ui/theme"
)

const pageSize = 50

type historyLoadedMsg struct {
	Transactions []store.Transaction
	Err          error
}

// HistoryScreen lists recent transactions with expandable line items.
type HistoryScreen struct {
	deps         *kiosk.Deps
	transactions []store.Transaction
	selected     int
	expanded     map[int]bool
	loaded       bool
	errMsg       string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(deps *kiosk.Deps) *HistoryScreen {
	return &HistoryScreen{
		deps:     deps,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.deps.Transactions
	return func() tea.Msg {
		txs, err := repo.List(context.Background(), store.TransactionQuery{Limit: pageSize})
		return historyLoadedMsg{Transactions: txs, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Items"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.transactions = msg.Transactions
		}
		s.loaded = true
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.transactions)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading transactions...")
	}
	if len(s.transactions) == 0 {
		return theme.Hint.Width(width).Align(lipgloss.Center).
			Render("\n\n  No transactions yet.")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, tx := range s.transactions {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s  %-18s  %-10s  %3d items  %10s",
			prefix, tx.Date.Local().Format("Jan 02 15:04"), truncate(tx.VendorName, 18),
			truncate(tx.StudentID, 10), itemCount(tx), s.deps.FormatMoney(tx.TotalCents))

		style := theme.Unselected
		if i == s.selected {
			style = theme.Selected
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			for _, it := range tx.Items {
				itemLine := fmt.Sprintf("    %d × %-24s %10s",
					it.Quantity, truncate(it.Name, 24), s.deps.FormatMoney(it.PriceCents*int64(it.Quantity)))
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(theme.TextDim).Render(itemLine)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func itemCount(tx store.Transaction) int {
	n := 0
	for _, it := range tx.Items {
		n += it.Quantity
	}
	return n
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
