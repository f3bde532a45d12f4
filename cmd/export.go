package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/winnerlabs/leadminer/internal/export"
	"github.com/winnerlabs/leadminer/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Re-export a stored run as CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runID := args[0]
		run, err := st.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		leads, err := st.GetLeads(ctx, runID)
		if err != nil {
			return err
		}

		f := cmd.Flags()
		format, _ := f.GetString("format")
		path, _ := f.GetString("output")

		write := export.WriteCSV
		if format == "xlsx" {
			write = export.WriteXLSX
		} else if format != "csv" {
			return fmt.Errorf("unknown format %q (want csv or xlsx)", format)
		}

		if path == "" {
			path = resolveExportPath("auto", run.Niche, format)
		}
		if err := writeExportFile(path, leads, run.Niche, write); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d leads → %s\n", len(leads), path)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.String("format", "csv", "output format: csv or xlsx")
	f.String("output", "", "output file path (default: derived from niche and date)")
	rootCmd.AddCommand(exportCmd)
}
