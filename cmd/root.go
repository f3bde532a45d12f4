package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/winnerlabs/leadminer/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leadminer",
	Short: "Business lead extraction pipeline",
	Long:  "Searches for businesses by niche and location, parses the results into structured leads, deduplicates and scores them, and exports dialer-ready files.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
