// Package kiosk holds the dependencies and shared cart state of the terminal
// storefront. Everything here is owned by the UI goroutine.
package kiosk

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/tapcart/internal/cart"
	"github.com/abhisek/tapcart/internal/catalog"
	"github.com/abhisek/tapcart/internal/money"
	"github.com/abhisek/tapcart/internal/scan"
	"github.com/abhisek/tapcart/internal/store"
)

// Checkouter charges a student for a cart.
type Checkouter interface {
	Checkout(ctx context.Context, identifier string, c *cart.Cart) (*store.Transaction, error)
}

// Deps is everything the screens need. Nil repositories and adapters
// disable the features that use them.
type Deps struct {
	Vendors      []catalog.Vendor
	Checkout     Checkouter
	Transactions store.TransactionRepo
	ScanEvents   store.ScanEventRepo
	Money        *money.Formatter

	Camera     scan.DecodeAdapter
	NFC        scan.NFCAdapter
	Beeper     scan.Beeper
	Notifier   scan.Notifier
	Prequalify bool

	Log    logrus.FieldLogger
	Basket *Basket
}

const eventTimeout = 2 * time.Second

// RecordScan appends a terminal scan outcome to the event log. Failures are
// logged and otherwise ignored.
func (d *Deps) RecordScan(source string, s scan.Session) {
	if d.ScanEvents == nil {
		return
	}
	data := store.ScanEventData{
		Source:    source,
		SessionID: s.ID,
		Status:    s.Status.String(),
		Result:    s.Result,
	}
	if s.Err != nil {
		data.Error = s.Err.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	if err := d.ScanEvents.Append(ctx, data); err != nil {
		d.Logger().WithError(err).WithField("source", source).Warn("scan event not recorded")
	}
}

var discardLog = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// Logger returns the configured logger or a discarding one.
func (d *Deps) Logger() logrus.FieldLogger {
	if d.Log == nil {
		return discardLog
	}
	return d.Log
}

// FormatMoney formats cents with the configured currency.
func (d *Deps) FormatMoney(cents int64) string {
	if d.Money == nil {
		return money.Format(cents)
	}
	return d.Money.Format(cents)
}
