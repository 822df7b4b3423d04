// Package commands implements the budget command line.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"budget/internal/services"
)

// Opener returns a ready service and a function that releases it. notifier
// receives the user-facing outcome of mutating commands.
type Opener func(ctx context.Context, notifier services.Notifier) (svc *services.TransactionService, closeFn func() error, err error)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(open Opener, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "budget",
		Short:   "Personal income and expense tracker with recurring forecasts",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newListCommand(open),
		newAddCommand(open),
		newUpdateCommand(open),
		newDeleteCommand(open),
		newSummaryCommand(open),
		newForecastCommand(open),
		newExportCommand(open),
		newImportCommand(open),
		newShareCommand(open),
	)

	return rootCmd
}

// withService opens the service for the duration of run.
func withService(open Opener, run func(cmd *cobra.Command, svc *services.TransactionService, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := open(cmd.Context(), services.NewWriterNotifier(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()
		return run(cmd, svc, args)
	}
}
