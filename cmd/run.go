package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/tapcart/internal/app"
	"github.com/abhisek/tapcart/internal/audio"
	"github.com/abhisek/tapcart/internal/kiosk"
	"github.com/abhisek/tapcart/internal/logging"
	"github.com/abhisek/tapcart/internal/maintenance"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, dbPath, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// The TUI owns the terminal, so logs go to a file.
	logPath := cfg.LogFile
	if logPath == "" {
		logPath = filepath.Join(filepath.Dir(dbPath), "tapcart.log")
	}
	logFile, err := logging.OpenFile(logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := logging.New(cfg, logFile)

	fm, err := newMoney(cfg)
	if err != nil {
		return err
	}

	vendors, err := st.CatalogRepo().Vendors(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(vendors) == 0 {
		fail("No vendors in %s. Run `tapcart seed` first.", dbPath)
	}

	bell := app.NewTerminalBell(log)
	beeper, err := audio.New(cfg.Audio, bell)
	if err != nil {
		return err
	}

	sched, err := maintenance.NewScheduler(cfg.PruneSpec, cfg.ScanEventRetention, st.ScanEventRepo(), log)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	svc := newCheckout(cfg, st, fm, log)
	defer svc.Close()

	cam, reader := newAdapters(cfg, log)
	toaster := app.NewToaster(log)
	deps := &kiosk.Deps{
		Vendors:      vendors,
		Checkout:     svc,
		Transactions: st.TransactionRepo(),
		ScanEvents:   st.ScanEventRepo(),
		Money:        fm,
		Camera:       cam,
		NFC:          reader,
		Beeper:       beeper,
		Notifier:     toaster,
		Prequalify:   cfg.CameraPrequalify,
		Log:          log,
		Basket:       kiosk.NewBasket(cfg.MaxQuantity),
	}

	log.WithFields(logrus.Fields{"db": dbPath, "vendors": len(vendors), "simulate": cfg.Simulate}).Info("Starting kiosk")
	return app.Run(ctx, deps, toaster, bell)
}
