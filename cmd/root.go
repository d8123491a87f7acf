package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parcelworks/landscout/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "landscout",
	Short: "Geospatial classification and opportunity scoring for residential real estate",
	Long:  "Imports MLS comparables, classifies streets into price zones, tracks market heat per postal code, and scores land parcels for acquisition urgency.",
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
