package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parcelworks/landscout/internal/market"
)

var analyzeMarketCmd = &cobra.Command{
	Use:   "market",
	Short: "Classify market heat for every known postal code",
	Long:  "Walks every distinct postal code in the comparable store and classifies its supply/demand state. Postal codes without recent sales count as unavailable, not failed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		summary, err := market.NewClassifier(st).ClassifyAll(ctx)
		if err != nil {
			return err
		}

		cmd.Printf("Classified %d of %d postal codes (%d without sales, %d failed)\n",
			summary.Succeeded, summary.Total, summary.Unavailable, summary.Failed)
		return nil
	},
}

func init() { analyzeCmd.AddCommand(analyzeMarketCmd) }
