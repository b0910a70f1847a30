// Package scanview holds what the camera and NFC scan screens share: the
// bridge from scan component callbacks into Bubble Tea messages, and the
// status panels.
package scanview

import (
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tapcart/internal/scan"
)

// ProceedDelay is how long the success panel stays up before checkout.
const ProceedDelay = 1200 * time.Millisecond

// SessionMsg carries a scan component state change.
type SessionMsg struct {
	Session scan.Session
}

// ScannedMsg carries the identifier delivered by OnScanSuccess.
type ScannedMsg struct {
	Identifier string
}

// ProceedMsg fires ProceedDelay after a successful session.
type ProceedMsg struct {
	SessionID uint64
}

// Bridge forwards scan callbacks, which arrive on device goroutines, to the
// UI loop. Callbacks never block once the bridge is closed.
type Bridge struct {
	events chan tea.Msg
	done   chan struct{}
	once   sync.Once
}

// NewBridge creates an open bridge.
func NewBridge() *Bridge {
	return &Bridge{
		events: make(chan tea.Msg, 16),
		done:   make(chan struct{}),
	}
}

// OnChange is a scan.Options.OnChange callback.
func (b *Bridge) OnChange(s scan.Session) {
	b.post(SessionMsg{Session: s})
}

// OnScanSuccess is a scan.Options.OnScanSuccess callback.
func (b *Bridge) OnScanSuccess(identifier string) {
	b.post(ScannedMsg{Identifier: identifier})
}

// Listen waits for the next event. Screens re-issue it after every event.
func (b *Bridge) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.events:
			return msg
		case <-b.done:
			return nil
		}
	}
}

// Close stops delivery.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bridge) post(msg tea.Msg) {
	select {
	case b.events <- msg:
	case <-b.done:
	}
}

// Proceed schedules a ProceedMsg for the session.
func Proceed(sessionID uint64) tea.Cmd {
	return tea.Tick(ProceedDelay, func(time.Time) tea.Msg {
		return ProceedMsg{SessionID: sessionID}
	})
}
