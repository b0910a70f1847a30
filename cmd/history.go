package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhisek/tapcart/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent transactions and scan events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, _, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		fm, err := newMoney(cfg)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		if scans, _ := cmd.Flags().GetBool("scans"); scans {
			events, err := st.ScanEventRepo().Query(ctx, store.QueryOpts{Limit: limit})
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "TIME\tSOURCE\tSTATUS\tRESULT\tERROR")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Source, e.Status, e.Result, e.Error)
			}
			return w.Flush()
		}

		txs, err := st.TransactionRepo().List(ctx, store.TransactionQuery{
			Limit:     limit,
			StudentID: mustString(cmd, "student"),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "DATE\tREF\tVENDOR\tSTUDENT\tTOTAL")
		for _, tx := range txs {
			fmt.Fprintf(w, "%s\t%.8s\t%s\t%s\t%s\n",
				tx.Date.Local().Format("2006-01-02 15:04"), tx.ID, tx.VendorName, tx.StudentID, fm.Format(tx.TotalCents))
		}
		return w.Flush()
	},
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum rows to show")
	historyCmd.Flags().Bool("scans", false, "Show the scan event log instead of transactions")
	historyCmd.Flags().String("student", "", "Only this student's transactions")
}
