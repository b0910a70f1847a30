package app

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/tapcart/internal/scan"
)

const (
	toastTTL       = 4 * time.Second
	maxToasts      = 3
	toastQueueSize = 8
)

// Toaster is the scan.Notifier of the terminal UI. Notify never blocks;
// toasts arriving while the queue is full are dropped and logged at debug.
type Toaster struct {
	ch  chan scan.Toast
	log logrus.FieldLogger
}

var _ scan.Notifier = (*Toaster)(nil)

// NewToaster creates a Toaster.
func NewToaster(log logrus.FieldLogger) *Toaster {
	return &Toaster{ch: make(chan scan.Toast, toastQueueSize), log: log}
}

func (t *Toaster) Notify(ts scan.Toast) {
	select {
	case t.ch <- ts:
	default:
		t.log.WithFields(logrus.Fields{"title": ts.Title, "variant": ts.Variant}).Debug("Toast queue full, dropping toast")
	}
}

type toastMsg struct {
	Toast scan.Toast
}

type toastExpiredMsg struct {
	ID int
}

type activeToast struct {
	id    int
	toast scan.Toast
}

func (t *Toaster) listen() tea.Cmd {
	return func() tea.Msg {
		return toastMsg{Toast: <-t.ch}
	}
}

func expireToast(id int) tea.Cmd {
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{ID: id}
	})
}
