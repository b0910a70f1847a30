package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/tapcart/internal/checkout"
	"github.com/abhisek/tapcart/internal/config"
	"github.com/abhisek/tapcart/internal/device/camera"
	"github.com/abhisek/tapcart/internal/device/pcsc"
	"github.com/abhisek/tapcart/internal/device/sim"
	"github.com/abhisek/tapcart/internal/money"
	"github.com/abhisek/tapcart/internal/notify"
	"github.com/abhisek/tapcart/internal/scan"
	"github.com/abhisek/tapcart/internal/store"
)

// openStore resolves the database path and opens it.
func openStore(cmd *cobra.Command, cfg *config.Config) (*store.Store, string, error) {
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("open store: %w", err)
	}
	return st, dbPath, nil
}

// newCheckout wires the checkout service. Receipts go through Telegram when
// a bot token is configured.
func newCheckout(cfg *config.Config, st *store.Store, fm *money.Formatter, log logrus.FieldLogger) *checkout.Service {
	var receipts notify.ReceiptSender = notify.Nop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, fm, log)
		if err != nil {
			log.WithError(err).Warn("Telegram receipts disabled")
		} else {
			receipts = tg
		}
	}
	return checkout.NewService(st.StudentRepo(), st.TransactionRepo(), receipts, log)
}

// newAdapters picks hardware or simulated devices.
func newAdapters(cfg *config.Config, log logrus.FieldLogger) (scan.DecodeAdapter, scan.NFCAdapter) {
	if cfg.Simulate {
		script := sim.DefaultScript()
		script.Identifier = cfg.SimIdentifier
		log.WithField("identifier", script.Identifier).Info("Using simulated devices")
		return sim.NewCamera(script), sim.NewReader(script)
	}
	cam := camera.New(camera.Config{
		Device:         cfg.CameraDevice,
		Width:          cfg.CameraWidth,
		Height:         cfg.CameraHeight,
		DecodeInterval: camera.DefaultConfig().DecodeInterval,
	}, log)
	reader := pcsc.New(pcsc.Config{Reader: cfg.NFCReader}, log)
	return cam, reader
}

func newMoney(cfg *config.Config) (*money.Formatter, error) {
	fm, err := money.New(cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("%sCURRENCY: %w", config.Prefix, err)
	}
	return fm, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
