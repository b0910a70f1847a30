package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/tapcart/internal/api"
	"github.com/abhisek/tapcart/internal/logging"
	"github.com/abhisek/tapcart/internal/maintenance"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storefront JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}
		log := logging.New(cfg, os.Stdout)

		st, dbPath, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		fm, err := newMoney(cfg)
		if err != nil {
			return err
		}
		svc := newCheckout(cfg, st, fm, log)
		defer svc.Close()

		sched, err := maintenance.NewScheduler(cfg.PruneSpec, cfg.ScanEventRetention, st.ScanEventRepo(), log)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		srv := api.NewServer(api.Deps{
			Catalog:      st.CatalogRepo(),
			Students:     st.StudentRepo(),
			Transactions: st.TransactionRepo(),
			Checkout:     svc,
			MaxQuantity:  cfg.MaxQuantity,
			Log:          log,
		})
		httpSrv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.WithField("addr", cfg.HTTPAddr).WithField("db", dbPath).Info("Starting API server")
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides TAPCART_HTTP_ADDR)")
}
