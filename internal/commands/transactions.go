package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budget/internal/core"
	"budget/internal/forecast"
	"budget/internal/services"
)

func newListCommand(open Opener) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: withService(open, func(cmd *cobra.Command, svc *services.TransactionService, _ []string) error {
			p, err := forecast.ParsePeriod(period)
			if err != nil {
				return err
			}
			txs, err := svc.List(cmd.Context(), p)
			if err != nil {
				return err
			}
			if len(txs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No transactions.")
				return nil
			}

			labels := svc.Labels()
			now := svc.Now()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tDESCRIPTION\tAMOUNT\tFREQUENCY")
			for _, t := range txs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Date, labels.Category(t.Category), t.Description, t.Signed(), labels.FrequencyLabel(t, now))
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().StringVar(&period, "period", "all", "period to list: all, current or last")

	return cmd
}

// draftFlags are the fields shared by add and update.
type draftFlags struct {
	typ          string
	description  string
	amount       string
	category     string
	date         string
	frequency    string
	installments int
	notes        string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.typ, "type", string(core.Expense), "income or expense")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "description (required)")
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "amount in major units, e.g. 12.50 (required)")
	cmd.Flags().StringVarP(&f.category, "category", "c", string(core.Other), "category")
	cmd.Flags().StringVar(&f.date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&f.frequency, "frequency", "f", string(core.Once), "once, monthly, quarterly, biannual, yearly or custom")
	cmd.Flags().IntVarP(&f.installments, "installments", "n", 0, "installment count for custom plans")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")
}

func (f *draftFlags) draft(svc *services.TransactionService) (core.Draft, error) {
	amount, err := core.ParseAmount(f.amount)
	if err != nil {
		return core.Draft{}, fmt.Errorf("amount %q: %w", f.amount, err)
	}
	date := core.DateOf(svc.Now())
	if f.date != "" {
		if date, err = core.ParseDate(f.date); err != nil {
			return core.Draft{}, fmt.Errorf("date %q: %w", f.date, err)
		}
	}

	d := core.Draft{
		Type:        core.TransactionType(f.typ),
		Description: f.description,
		Amount:      amount,
		Category:    core.Category(f.category),
		Date:        date,
		Frequency:   core.Frequency(f.frequency),
		Notes:       f.notes,
	}
	if f.installments > 0 {
		d.InstallmentCount = core.IntPtr(f.installments)
	}
	return d, nil
}

func newAddCommand(open Opener) *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction; custom plans are split into installments",
		Args:  cobra.NoArgs,
		RunE: withService(open, func(cmd *cobra.Command, svc *services.TransactionService, _ []string) error {
			d, err := flags.draft(svc)
			if err != nil {
				return err
			}
			ids, err := svc.Create(cmd.Context(), d)
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return err
		}),
	}
	flags.register(cmd)

	return cmd
}

func newUpdateCommand(open Opener) *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace every field of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: withService(open, func(cmd *cobra.Command, svc *services.TransactionService, args []string) error {
			d, err := flags.draft(svc)
			if err != nil {
				return err
			}
			return svc.Update(cmd.Context(), core.Transaction{ID: args[0], Draft: d})
		}),
	}
	flags.register(cmd)

	return cmd
}

func newDeleteCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: withService(open, func(cmd *cobra.Command, svc *services.TransactionService, args []string) error {
			return svc.Delete(cmd.Context(), args[0])
		}),
	}
}
