package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budget/internal/services"
)

func newExportCommand(open Opener) *cobra.Command {
	var dir string
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every transaction as a JSON file",
		Args:  cobra.NoArgs,
		RunE: withService(open, func(cmd *cobra.Command, svc *services.TransactionService, _ []string) error {
			if toStdout {
				return svc.Export(cmd.Context(), cmd.OutOrStdout())
			}
			_, err := svc.ExportFile(cmd.Context(), dir, svc.Now())
			return err
		}),
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory for the export file")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write the export to stdout")

	return cmd
}

func newImportCommand(open Opener) *cobra.Command {
	var link string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import transactions from an export file or a share link",
		Args:  cobra.MaximumNArgs(1),
		RunE: withService(open, func(cmd *cobra.Command, svc *services.TransactionService, args []string) error {
			var (
				result services.ImportResult
				err    error
			)
			switch {
			case link != "" && len(args) > 0:
				return errors.New("give either a file or --link, not both")
			case link != "":
				result, err = svc.ImportLink(cmd.Context(), link)
			case len(args) == 1:
				f, openErr := os.Open(args[0])
				if openErr != nil {
					return openErr
				}
				defer f.Close()
				result, err = svc.Import(cmd.Context(), f)
			default:
				return errors.New("give a file or --link")
			}
			if err != nil {
				return err
			}

			for _, msg := range result.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), "  "+msg)
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d transactions failed to import", result.Failed)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&link, "link", "", "share link to import")

	return cmd
}

func newShareCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "share",
		Short: "Print a share link carrying every transaction",
		Args:  cobra.NoArgs,
		RunE: withService(open, func(cmd *cobra.Command, svc *services.TransactionService, _ []string) error {
			link, err := svc.ShareLink(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		}),
	}
}
