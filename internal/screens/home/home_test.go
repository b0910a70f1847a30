package home

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tapcart/internal/catalog"
	"github.com/abhisek/tapcart/internal/kiosk"
	"github.com/abhisek/tapcart/internal/router"
	"github.com/abhisek/tapcart/internal/screens/placeholder"
	"github.com/abhisek/tapcart/internal/screens/vendor"
)

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testScreen() (*HomeScreen, *kiosk.Deps) {
	deps := &kiosk.Deps{Vendors: catalog.Default(), Basket: kiosk.NewBasket(0)}
	return New(deps), deps
}

func TestMenuListsVendors(t *testing.T) {
	h, deps := testScreen()

	if got, want := len(h.menu.Items), len(deps.Vendors)+2; got != want {
		t.Fatalf("expected %d items, got %d", want, got)
	}
	view := h.View(120, 40)
	for _, v := range deps.Vendors {
		if !strings.Contains(view, v.Name) {
			t.Errorf("expected vendor %q in menu", v.Name)
		}
	}
}

func TestEnterOpensVendor(t *testing.T) {
	h, _ := testScreen()

	_, cmd := h.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected navigation command")
	}
	msg, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if _, ok := msg.Screen.(*vendor.VendorScreen); !ok {
		t.Errorf("expected vendor screen, got %T", msg.Screen)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	h, deps := testScreen()

	for range deps.Vendors {
		h.Update(specialKey(tea.KeyDown))
	}
	_, cmd := h.Update(specialKey(tea.KeyEnter))
	msg, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if _, ok := msg.Screen.(*placeholder.PlaceholderScreen); !ok {
		t.Errorf("expected placeholder, got %T", msg.Screen)
	}
}

func TestCartCountOnVendor(t *testing.T) {
	h, deps := testScreen()

	v := deps.Vendors[0]
	if _, err := deps.Basket.Cart(v).SetQuantity(v.Products[0], 2); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.View(120, 40), v.Name+" (2)") {
		t.Error("expected cart count next to vendor")
	}
}
