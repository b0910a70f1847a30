package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/tapcart/internal/catalog"
)

// demoStudents gives a fresh kiosk accounts to try checkout with.
var demoStudents = []struct {
	id      string
	name    string
	balance int64
}{
	{"S1234567", "Demo Student", 5000},
	{"S7654321", "Empty Wallet", 0},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the vendor catalog and demo student accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		vendors := catalog.Default()
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer f.Close()
			if vendors, err = catalog.Load(f); err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
		}

		if err := st.CatalogRepo().Sync(ctx, vendors); err != nil {
			return err
		}
		products := 0
		for _, v := range vendors {
			products += len(v.Products)
		}
		fmt.Printf("Loaded %d vendors and %d products into %s\n", len(vendors), products, dbPath)

		if skip, _ := cmd.Flags().GetBool("no-students"); skip {
			return nil
		}
		students := st.StudentRepo()
		for _, s := range demoStudents {
			if err := students.Upsert(ctx, s.id, s.name); err != nil {
				return err
			}
			existing, err := students.Get(ctx, s.id)
			if err != nil {
				return err
			}
			if existing.BalanceCents == 0 && s.balance > 0 {
				if _, err := students.TopUp(ctx, s.id, s.balance); err != nil {
					return err
				}
			}
			fmt.Printf("Student %s (%s)\n", s.id, s.name)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "", "Catalog YAML file (defaults to the built-in campus catalog)")
	seedCmd.Flags().Bool("no-students", false, "Skip the demo student accounts")
}
