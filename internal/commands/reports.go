package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/core"
	"budget/internal/forecast"
	"budget/internal/services"
)

func newSummaryCommand(open Opener) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Total the transactions dated in a range (default: this month)",
		Args:  cobra.NoArgs,
		RunE: withService(open, func(cmd *cobra.Command, svc *services.TransactionService, _ []string) error {
			from, to, err := parseRange(start, end)
			if err != nil {
				return err
			}
			summary, err := svc.Summary(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary, svc.Labels())
		}),
	}

	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	cmd.MarkFlagsRequiredTogether("start", "end")

	return cmd
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	if start == "" && end == "" {
		return time.Time{}, time.Time{}, nil
	}
	from, err := core.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	to, err := core.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	if to.Before(from.Time) {
		return time.Time{}, time.Time{}, errors.New("end is before start")
	}
	return from.Time, to.Time, nil
}

func printSummary(w io.Writer, s core.Summary, labels core.Labels) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Income\t%s\t\n", s.Income)
	fmt.Fprintf(tw, "Expense\t%s\t\n", s.Expense)
	fmt.Fprintf(tw, "Balance\t%s\t\n", s.Balance)
	fmt.Fprintf(tw, "Transactions\t%d\t\n", s.Count)
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, group := range []struct {
		title   string
		amounts []core.CategoryAmount
	}{
		{"Income by category", s.IncomeByCategory},
		{"Expense by category", s.ExpenseByCategory},
	} {
		if len(group.amounts) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", group.title)
		for _, ca := range group.amounts {
			fmt.Fprintf(tw, "  %s\t%s\t\n", labels.Category(ca.Category), ca.Amount)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func newForecastCommand(open Opener) *cobra.Command {
	var months int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project monthly income and expenses, recurring items included",
		Args:  cobra.NoArgs,
		RunE: withService(open, func(cmd *cobra.Command, svc *services.TransactionService, _ []string) error {
			if months < 0 || months > forecast.MaxWindowMonths {
				return fmt.Errorf("%w: months must be between 1 and %d", forecast.ErrInvalidWindow, forecast.MaxWindowMonths)
			}
			f, err := svc.Forecast(cmd.Context(), months)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(f)
			}
			return printForecast(cmd.OutOrStdout(), f)
		}),
	}

	cmd.Flags().IntVarP(&months, "months", "m", 0, "window size in months (default from FORECAST_MONTHS)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func printForecast(w io.Writer, f forecast.Forecast) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSE\tBALANCE\t")
	for _, m := range f.Months {
		label := m.Label
		if m.IsCurrentMonth {
			label = "* " + label
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", label, m.Income, m.Expense, m.Balance)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t%s\t%s\t\n", f.TotalIncome, f.TotalExpense, f.TotalBalance)
	return tw.Flush()
}
