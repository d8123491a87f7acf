package main

import (
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/parcelworks/landscout/internal/classify"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/zone"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Score investment zones around a point or across a city",
}

var (
	zonesRadius    float64
	zonesMinSample int
)

var zonesScoreCmd = &cobra.Command{
	Use:   "score <lat> <lon>",
	Short: "Score the investment potential of the area around a point",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return eris.Wrap(err, "zones: parse latitude")
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrap(err, "zones: parse longitude")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		analyzer := zone.NewAnalyzer(st, classify.NewLadder(cfg.Zones.AreaThresholds))
		score, err := analyzer.ScoreArea(ctx, model.Coordinate{Lat: lat, Lon: lon}, zonesRadius, zonesMinSample)
		if err != nil {
			return err
		}

		if !score.Sufficient {
			cmd.Println(score.Recommendation)
			return nil
		}
		cmd.Printf("Score: %d/100\n", score.Score)
		cmd.Printf("Analyzed %d properties within %.1f miles\n", score.Analyzed, score.RadiusMiles)
		cmd.Printf("Green %.1f%% | Light green %.1f%% | Yellow %.1f%% | Red %.1f%%\n",
			score.GreenPercent, score.LightPercent, score.YellowPercent, score.RedPercent)
		cmd.Println(score.Recommendation)
		return nil
	},
}

var (
	zonesBestCity     string
	zonesBestMinScore int
	zonesBestSample   int
)

var zonesBestCmd = &cobra.Command{
	Use:   "best",
	Short: "Rank the best investment zones across a city",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		analyzer := zone.NewAnalyzer(st, classify.NewLadder(cfg.Zones.AreaThresholds))
		best, err := analyzer.FindBest(ctx, zonesBestCity, zonesBestMinScore, zonesBestSample)
		if err != nil {
			return err
		}

		if len(best) == 0 {
			cmd.Printf("No zones at or above score %d in %s\n", zonesBestMinScore, zonesBestCity)
			return nil
		}
		for i, z := range best {
			cmd.Printf("%d. %s (%.4f, %.4f) score %d, %.0f%% green zones, %d properties\n",
				i+1, z.CenterAddress, z.Lat, z.Lon, z.Score, z.GreenPercent, z.Analyzed)
		}
		return nil
	},
}

func init() {
	zonesScoreCmd.Flags().Float64Var(&zonesRadius, "radius", zone.DefaultRadiusMiles, "search radius in miles")
	zonesScoreCmd.Flags().IntVar(&zonesMinSample, "min-sample", zone.DefaultMinSample, "minimum properties for a score")
	zonesBestCmd.Flags().StringVar(&zonesBestCity, "city", "Asheville", "city to scan")
	zonesBestCmd.Flags().IntVar(&zonesBestMinScore, "min-score", 60, "minimum zone score to report")
	zonesBestCmd.Flags().IntVar(&zonesBestSample, "sample-size", zone.DefaultMinSample, "minimum properties per zone")
	zonesCmd.AddCommand(zonesScoreCmd)
	zonesCmd.AddCommand(zonesBestCmd)
	rootCmd.AddCommand(zonesCmd)
}
