// Package pcsc implements scan.NFCAdapter over a PC/SC contactless reader.
package pcsc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ebfe/scard"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/tapcart/internal/scan"
)

// Config selects the reader.
type Config struct {
	// Reader pins a reader by name. Empty uses the first reader found.
	Reader string
	// Poll bounds each wait for a card so cancellation is noticed.
	Poll time.Duration
}

// Adapter is a scan.NFCAdapter backed by pcscd.
type Adapter struct {
	cfg Config
	log logrus.FieldLogger
}

var _ scan.NFCAdapter = (*Adapter)(nil)

// New creates an Adapter.
func New(cfg Config, log logrus.FieldLogger) *Adapter {
	if cfg.Poll <= 0 {
		cfg.Poll = 500 * time.Millisecond
	}
	return &Adapter{cfg: cfg, log: log.WithField("component", "pcsc")}
}

// Available reports whether pcscd is reachable and has at least one reader.
func (a *Adapter) Available() bool {
	sctx, err := scard.EstablishContext()
	if err != nil {
		a.log.WithError(err).Debug("pcsc unavailable")
		return false
	}
	defer sctx.Release()

	readers, err := sctx.ListReaders()
	return err == nil && len(readers) > 0
}

// Readers lists reader names known to pcscd.
func (a *Adapter) Readers() ([]string, error) {
	sctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish pcsc context: %w", err)
	}
	defer sctx.Release()

	readers, err := sctx.ListReaders()
	if errors.Is(err, scard.ErrNoReadersAvailable) {
		return nil, nil
	}
	return readers, err
}

// Scan activates the reader. Each card presented produces one OnReading or
// OnReadingError; the card must be removed before it is read again. Stop
// does not wait for the polling goroutine, so it may be called from inside
// a handler.
func (a *Adapter) Scan(ctx context.Context, h scan.NFCHandlers) (scan.Subscription, error) {
	sctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish pcsc context: %w", err)
	}
	reader, err := a.pickReader(sctx)
	if err != nil {
		sctx.Release()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	go a.poll(ctx, sctx, reader, h)

	a.log.WithField("reader", reader).Debug("nfc reader armed")
	return scan.StopOnce(func() {
		cancel()
		if err := sctx.Cancel(); err != nil {
			a.log.WithError(err).Debug("cancel pcsc wait")
		}
	}), nil
}

func (a *Adapter) pickReader(sctx *scard.Context) (string, error) {
	readers, err := sctx.ListReaders()
	if err != nil && !errors.Is(err, scard.ErrNoReadersAvailable) {
		return "", fmt.Errorf("list readers: %w", err)
	}
	if len(readers) == 0 {
		return "", scan.ErrNoDeviceFound
	}
	if a.cfg.Reader == "" {
		return readers[0], nil
	}
	for _, r := range readers {
		if r == a.cfg.Reader {
			return r, nil
		}
	}
	return "", fmt.Errorf("reader %q: %w", a.cfg.Reader, scan.ErrNoDeviceFound)
}

func (a *Adapter) poll(ctx context.Context, sctx *scard.Context, reader string, h scan.NFCHandlers) {
	defer sctx.Release()

	states := []scard.ReaderState{{Reader: reader, CurrentState: scard.StateUnaware}}
	for ctx.Err() == nil {
		err := sctx.GetStatusChange(states, a.cfg.Poll)
		switch {
		case err == nil:
		case errors.Is(err, scard.ErrTimeout):
			continue
		case errors.Is(err, scard.ErrCancelled):
			return
		default:
			if ctx.Err() == nil {
				h.OnReadingError(&scan.AdapterError{Op: "wait for card", Err: err})
			}
			return
		}

		was := states[0].CurrentState
		now := states[0].EventState
		states[0].CurrentState = now &^ scard.StateChanged

		if now&scard.StatePresent == 0 || was&scard.StatePresent != 0 {
			continue
		}

		msg, err := a.read(sctx, reader)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			h.OnReadingError(err)
			continue
		}
		h.OnReading(msg)
	}
}

func (a *Adapter) read(sctx *scard.Context, reader string) (scan.Message, error) {
	card, err := sctx.Connect(reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return scan.Message{}, fmt.Errorf("connect card: %w", err)
	}
	defer func() {
		if err := card.Disconnect(scard.LeaveCard); err != nil {
			a.log.WithError(err).Debug("disconnect card")
		}
	}()
	return readMessage(card)
}
