package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parcelworks/landscout/internal/batch"
	"github.com/parcelworks/landscout/internal/geocode"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Address resolution and cache maintenance",
}

var geocodeBackfillLimit int

var geocodeBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Geocode comparables that have no coordinate",
	Long:  "Resolves every comparable without a coordinate through the cache, the provider, and the positional fallback chain, then writes the coordinate back.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		resolver, err := newResolver()
		if err != nil {
			return err
		}
		defer func() {
			if err := resolver.Flush(); err != nil {
				zap.L().Warn("geocode cache flush failed", zap.Error(err))
			}
		}()

		comps, err := st.FindComparables(ctx, store.ComparableFilter{})
		if err != nil {
			return err
		}

		var missing []model.Comparable
		for _, c := range comps {
			if _, ok := c.Coordinate(); !ok {
				missing = append(missing, c)
				if geocodeBackfillLimit > 0 && len(missing) >= geocodeBackfillLimit {
					break
				}
			}
		}
		if len(missing) == 0 {
			cmd.Println("No comparables without coordinates")
			return nil
		}

		summary, err := batch.Run(ctx, "geocode backfill", missing,
			func(c model.Comparable) string { return c.Address },
			func(ctx context.Context, c model.Comparable) error {
				coord, err := resolver.Resolve(ctx, geocode.Request{
					Address:    c.Address,
					StreetName: c.StreetName,
					City:       c.City,
					PostalCode: c.PostalCode,
				})
				if err != nil {
					return err
				}
				c.Latitude = &coord.Lat
				c.Longitude = &coord.Lon
				return st.UpsertComparable(ctx, &c)
			})
		if err != nil {
			return err
		}

		cmd.Printf("Geocoded %d of %d comparables (%d failed)\n",
			summary.Succeeded, summary.Total, summary.Failed)
		return nil
	},
}

func init() {
	geocodeBackfillCmd.Flags().IntVar(&geocodeBackfillLimit, "limit", 0, "maximum comparables to geocode (0 = all)")
	geocodeCmd.AddCommand(geocodeBackfillCmd)
	rootCmd.AddCommand(geocodeCmd)
}
