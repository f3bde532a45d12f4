package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/winnerlabs/leadminer/internal/model"
	"github.com/winnerlabs/leadminer/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored extraction runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("runs"); err != nil {
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

		f := cmd.Flags()
		status, _ := f.GetString("status")
		niche, _ := f.GetString("niche")
		limit, _ := f.GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Niche:  niche,
			Limit:  limit,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "nenhum run encontrado")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %-8s  %4d leads  %s / %s  (%s)\n",
				r.ID, r.Status, r.LeadCount, r.Niche, r.Location,
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

func init() {
	f := runsCmd.Flags()
	f.String("status", "", "filter by status (running, complete, empty, failed)")
	f.String("niche", "", "filter by niche")
	f.Int("limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
