package nfcscan

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tapcart/internal/catalog"
	"github.com/abhisek/tapcart/internal/kiosk"
	"github.com/abhisek/tapcart/internal/router"
	"github.com/abhisek/tapcart/internal/scan"
	"github.com/abhisek/tapcart/internal/scan/scantest"
	"github.com/abhisek/tapcart/internal/screens/scanview"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testScreen(t *testing.T, reader scan.NFCAdapter) (*NFCScreen, *scantest.Notifier) {
	t.Helper()
	notifier := &scantest.Notifier{}
	vendors := catalog.Default()
	deps := &kiosk.Deps{
		Vendors:  vendors,
		NFC:      reader,
		Notifier: notifier,
		Beeper:   &scantest.Beeper{},
		Basket:   kiosk.NewBasket(0),
	}
	c := deps.Basket.Cart(vendors[0])
	if _, err := c.SetQuantity(vendors[0].Products[0], 1); err != nil {
		t.Fatal(err)
	}
	s := New(deps, c)
	t.Cleanup(s.Close)
	return s, notifier
}

func next(t *testing.T, s *NFCScreen) tea.Msg {
	t.Helper()
	got := make(chan tea.Msg, 1)
	go func() { got <- s.bridge.Listen()() }()
	select {
	case msg := <-got:
		s.Update(msg)
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scan event")
		return nil
	}
}

// press sends a key and runs the command it returns.
func press(s *NFCScreen, msg tea.KeyPressMsg) tea.Msg {
	_, cmd := s.Update(msg)
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestIdleShowsStartButton(t *testing.T) {
	s, _ := testScreen(t, scantest.NewReader())

	view := s.View(100, 30)
	if !strings.Contains(view, "Start Scanning") {
		t.Error("expected Start Scanning button")
	}
	if !strings.Contains(view, "Press Enter to start scanning.") {
		t.Error("expected idle instructions")
	}
}

func TestTapSuccessProceedsToCheckout(t *testing.T) {
	reader := scantest.NewReader()
	s, notifier := testScreen(t, reader)

	press(s, specialKey(tea.KeyEnter))
	next(t, s)
	if s.sess.Status != scan.StatusScanning {
		t.Fatalf("expected scanning, got %s", s.sess.Status)
	}
	if s.nfc.ActionEnabled() {
		t.Error("expected action disabled while scanning")
	}

	reader.ReadText("S7654321", "ignored")
	next(t, s)
	if _, ok := next(t, s).(scanview.ScannedMsg); !ok {
		t.Fatal("expected ScannedMsg")
	}
	if s.identifier != "S7654321" {
		t.Fatalf("expected first record only, got %q", s.identifier)
	}
	if got := s.nfc.ActionLabel(); got != "Scan Again" {
		t.Errorf("expected Scan Again, got %q", got)
	}
	if toasts := notifier.Toasts(); len(toasts) != 1 || toasts[0].Title != "Scan Successful!" {
		t.Errorf("unexpected toasts %+v", toasts)
	}

	msg, ok := press(s, keyPress('p')).(router.ReplaceScreenMsg)
	if !ok || msg.Screen == nil {
		t.Fatal("expected ReplaceScreenMsg to the receipt")
	}
}

func TestReadErrorAllowsScanAgain(t *testing.T) {
	reader := scantest.NewReader()
	s, _ := testScreen(t, reader)

	press(s, specialKey(tea.KeyEnter))
	next(t, s)
	reader.Fail(scan.ErrEmptyMessage)
	next(t, s)

	if s.sess.Status != scan.StatusError {
		t.Fatalf("expected error, got %s", s.sess.Status)
	}
	if !strings.Contains(s.View(100, 30), "Scan Failed") {
		t.Error("expected failure panel")
	}

	press(s, specialKey(tea.KeyEnter))
	next(t, s)
	if s.sess.Status != scan.StatusScanning {
		t.Errorf("expected Scan Again to return to scanning, got %s", s.sess.Status)
	}
	if reader.ScanCalls() != 2 {
		t.Errorf("expected 2 scan activations, got %d", reader.ScanCalls())
	}
}

func TestUnsupportedReader(t *testing.T) {
	reader := scantest.NewReader()
	reader.Supported = false
	s, _ := testScreen(t, reader)

	if s.nfc.ActionEnabled() {
		t.Error("expected action disabled without NFC")
	}
	s.start()()
	next(t, s)

	if s.sess.Status != scan.StatusUnsupported {
		t.Fatalf("expected unsupported, got %s", s.sess.Status)
	}
	if !strings.Contains(s.View(100, 30), "NFC Not Supported") {
		t.Error("expected unsupported panel")
	}
	if reader.ScanCalls() != 0 {
		t.Errorf("expected no scan activation, got %d", reader.ScanCalls())
	}
	if msg := press(s, specialKey(tea.KeyEnter)); msg != nil {
		t.Error("expected disabled button to ignore enter")
	}
}

func TestNilAdapterIsUnsupported(t *testing.T) {
	s, _ := testScreen(t, nil)

	s.start()()
	next(t, s)
	if s.sess.Status != scan.StatusUnsupported {
		t.Errorf("expected unsupported, got %s", s.sess.Status)
	}
}
