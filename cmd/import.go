package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parcelworks/landscout/internal/importer"
)

var (
	importCSVPath string
	importGeocode bool
	importCity    string
	importState   string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an MLS CSV export into the comparable store",
	Long:  "Parses a canonical or Redfin CSV export, upserts comparables by MLS number, and archives sold records older than the configured window.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		im := importer.New(st, nil, cfg.Import.ArchiveAfterDays, importCity, importState)
		if importGeocode {
			resolver, err := newResolver()
			if err != nil {
				return err
			}
			defer func() {
				if err := resolver.Flush(); err != nil {
					zap.L().Warn("geocode cache flush failed", zap.Error(err))
				}
			}()
			im = importer.New(st, resolver, cfg.Import.ArchiveAfterDays, importCity, importState)
		}

		summary, err := im.ImportFile(ctx, importCSVPath)
		if err != nil {
			return err
		}

		cmd.Printf("Imported %d of %d rows (%d skipped, %d geocoded, %d archived)\n",
			summary.Imported, summary.Rows, summary.Skipped, summary.Geocoded, summary.Archived)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	importCmd.Flags().BoolVar(&importGeocode, "geocode", false, "geocode rows that arrive without coordinates")
	importCmd.Flags().StringVar(&importCity, "default-city", "Asheville", "city assumed for rows without one")
	importCmd.Flags().StringVar(&importState, "default-state", "NC", "state assumed for rows without one")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
