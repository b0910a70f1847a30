package cartview

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tapcart/internal/catalog"
	"github.com/abhisek/tapcart/internal/kiosk"
	"github.com/abhisek/tapcart/internal/router"
	"github.com/abhisek/tapcart/internal/screen"
	"github.com/abhisek/tapcart/internal/screens/nfcscan"
	"github.com/abhisek/tapcart/internal/screens/placeholder"
	"github.com/abhisek/tapcart/internal/screens/receipt"
	"github.com/abhisek/tapcart/internal/store"
)

// mockScanEvents implements store.ScanEventRepo for testing.
type mockScanEvents struct {
	mu     sync.Mutex
	events []store.ScanEventData
}

func (m *mockScanEvents) Append(_ context.Context, data store.ScanEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, data)
	return nil
}
func (m *mockScanEvents) Query(_ context.Context, _ store.QueryOpts) ([]store.ScanEvent, error) {
	return nil, nil
}
func (m *mockScanEvents) Prune(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func typeText(s screen.Screen, text string) screen.Screen {
	for _, r := range text {
		s, _ = s.Update(keyPress(r))
	}
	return s
}

// collect runs cmd and returns every message it produces.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func pushed(msgs []tea.Msg) screen.Screen {
	for _, m := range msgs {
		if p, ok := m.(router.PushScreenMsg); ok {
			return p.Screen
		}
	}
	return nil
}

func testScreen(t *testing.T) (*CartScreen, *kiosk.Deps, *mockScanEvents) {
	t.Helper()
	events := &mockScanEvents{}
	vendors := catalog.Default()
	deps := &kiosk.Deps{Vendors: vendors, ScanEvents: events, Basket: kiosk.NewBasket(0)}
	c := deps.Basket.Cart(vendors[0])
	if _, err := c.SetQuantity(vendors[0].Products[0], 3); err != nil {
		t.Fatal(err)
	}
	return New(deps, c), deps, events
}

func TestCartListsItems(t *testing.T) {
	s, deps, _ := testScreen(t)

	view := s.View(100, 30)
	if !strings.Contains(view, "3 × "+deps.Vendors[0].Products[0].Name) {
		t.Error("expected cart line")
	}
	for _, label := range []string{"Pay with Camera", "Pay with NFC Card", "Enter Student ID"} {
		if !strings.Contains(view, label) {
			t.Errorf("expected %q option", label)
		}
	}
}

func TestCameraWithoutDeviceShowsPlaceholder(t *testing.T) {
	s, _, _ := testScreen(t)

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if _, ok := pushed(collect(cmd)).(*placeholder.PlaceholderScreen); !ok {
		t.Error("expected placeholder without a camera")
	}
}

func TestNFCOptionOpensReader(t *testing.T) {
	s, _, _ := testScreen(t)

	s.Update(specialKey(tea.KeyDown))
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	next := pushed(collect(cmd))
	if _, ok := next.(*nfcscan.NFCScreen); !ok {
		t.Fatalf("expected NFC screen, got %T", next)
	}
	next.(screen.Closer).Close()
}

func TestManualEntryPaysAndRecords(t *testing.T) {
	s, _, events := testScreen(t)

	s.Update(specialKey(tea.KeyDown))
	s.Update(specialKey(tea.KeyDown))
	s.Update(specialKey(tea.KeyEnter))
	if !s.CapturingInput() {
		t.Fatal("expected student ID field focused")
	}

	typeText(s, "S1234567")
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	msgs := collect(cmd)

	if _, ok := pushed(msgs).(*receipt.ReceiptScreen); !ok {
		t.Fatal("expected receipt screen")
	}
	if s.CapturingInput() {
		t.Error("expected field released after submit")
	}
	events.mu.Lock()
	defer events.mu.Unlock()
	if len(events.events) != 1 || events.events[0].Source != "manual" || events.events[0].Result != "S1234567" {
		t.Errorf("unexpected events %+v", events.events)
	}
}

func TestManualEntryRejectsBlankID(t *testing.T) {
	s, _, _ := testScreen(t)

	s.Update(specialKey(tea.KeyDown))
	s.Update(specialKey(tea.KeyDown))
	s.Update(specialKey(tea.KeyEnter))
	typeText(s, "   ")

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if pushed(collect(cmd)) != nil {
		t.Error("expected blank ID rejected")
	}
	if !s.CapturingInput() {
		t.Error("expected field to stay focused")
	}

	s.Update(specialKey(tea.KeyEscape))
	if s.CapturingInput() {
		t.Error("expected esc to leave the field")
	}
}

func TestClearCart(t *testing.T) {
	s, deps, _ := testScreen(t)

	for i := 0; i < 3; i++ {
		s.Update(specialKey(tea.KeyDown))
	}
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	msgs := collect(cmd)

	if deps.Basket.Count() != 0 {
		t.Error("expected cart cleared")
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if _, ok := msgs[0].(router.PopScreenMsg); !ok {
		t.Error("expected pop after clearing")
	}
}
