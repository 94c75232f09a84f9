package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/worktimer/internal/report"
	"github.com/sadopc/worktimer/internal/store"
)

func newTotalCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "total [MONTH]",
		Short: "Print the hours recorded in a month table",
		Long: "Print the hours recorded in a month table. MONTH is a table name such as\n" +
			"6 or 2026-06; it defaults to the current month.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := store.KeyFor(app.now(), app.Config.KeyByYear)
			if len(args) == 1 {
				k, err := store.ParseKey(args[0])
				if err != nil {
					return err
				}
				key = k
			}

			records, err := app.Store.Load(cmd.Context(), key)
			if err != nil {
				return err
			}
			total := report.Sum(records)
			for _, skipped := range total.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", store.TableName(app.Store, key), skipped)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Hours worked in %s: %s h\n",
				key.Label(), report.FormatHours(total.Hours(), app.Config.DecimalSeparator))
			return nil
		},
	}
}

func newMonthsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List the month tables with their totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := app.Store.Months(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "No months recorded yet")
				return nil
			}
			for _, k := range keys {
				records, err := app.Store.Load(cmd.Context(), k)
				if err != nil {
					return err
				}
				total := report.Sum(records)
				line := fmt.Sprintf("%-16s %-10s %4d sessions %12s h",
					k.Label(), store.TableName(app.Store, k), total.Rows,
					report.FormatHours(total.Hours(), app.Config.DecimalSeparator))
				if n := len(total.Skipped); n > 0 {
					line += fmt.Sprintf("  (%d skipped)", n)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
