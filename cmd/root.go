package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/tapcart/internal/config"
	"github.com/abhisek/tapcart/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tapcart",
	Short: "Campus vendor kiosk",
	Long:  "TapCart — terminal storefront for campus vendors with camera and NFC student ID checkout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TAPCART_DB env var)")
	rootCmd.PersistentFlags().Bool("simulate", false, "Use simulated camera and NFC devices (overrides TAPCART_SIMULATE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(topupCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads .env and the environment, then applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("simulate") {
		cfg.Simulate, _ = cmd.Flags().GetBool("simulate")
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then TAPCART_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}
