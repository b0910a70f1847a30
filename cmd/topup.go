package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var topupCmd = &cobra.Command{
	Use:   "topup <student-id> <cents>",
	Short: "Add funds to a student account, creating it if needed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var cents int64
		if _, err := fmt.Sscan(args[1], &cents); err != nil || cents <= 0 {
			return fmt.Errorf("amount must be a positive number of cents, got %q", args[1])
		}

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

		students := st.StudentRepo()
		if name, _ := cmd.Flags().GetString("name"); name != "" {
			if err := students.Upsert(ctx, args[0], name); err != nil {
				return err
			}
		} else if _, err := students.Get(ctx, args[0]); err != nil {
			if err := students.Upsert(ctx, args[0], args[0]); err != nil {
				return err
			}
		}

		balance, err := students.TopUp(ctx, args[0], cents)
		if err != nil {
			return err
		}
		fmt.Printf("%s balance: %s\n", args[0], fm.Format(balance))
		return nil
	},
}

func init() {
	topupCmd.Flags().String("name", "", "Student display name")
}
