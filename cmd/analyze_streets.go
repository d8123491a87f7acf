package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parcelworks/landscout/internal/classify"
	"github.com/parcelworks/landscout/internal/geo"
)

var analyzeStreetsCmd = &cobra.Command{
	Use:   "streets",
	Short: "Classify every known street into a price zone color",
	Long:  "Walks every distinct street in the comparable store and classifies it from its recent sale evidence. Streets with no usable evidence count as unavailable, not failed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		classifier := classify.NewStreetClassifier(
			geo.NewSearcher(st), st, classify.NewLadder(cfg.Zones.Thresholds))

		summary, err := classifier.ClassifyAll(ctx)
		if err != nil {
			return err
		}

		cmd.Printf("Classified %d of %d streets (%d without evidence, %d failed)\n",
			summary.Succeeded, summary.Total, summary.Unavailable, summary.Failed)
		return nil
	},
}

func init() { analyzeCmd.AddCommand(analyzeStreetsCmd) }
